// Package phonetic fetches IPA transcriptions of card texts. They fill
// the Hint field of records that have none.
package phonetic
