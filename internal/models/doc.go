// Package models lists the OpenAI models available to the configured API
// key, so that a chat model for translation can be picked.
package models
