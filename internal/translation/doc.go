// Package translation fills in the back side of cards from their front side
// with an OpenAI chat model.
package translation
