// Package textutil normalizes subtitle and keyword text, counts words for
// the speech-rate score, and builds token fingerprints for lexical similarity.
//
// Tokenization lowercases NFKC-normalized text. Latin and digit runs become
// word tokens of at least two characters; runs of Han, Kana, or Hangul
// characters become overlapping character bigrams so unspaced text compares
// meaningfully.
package textutil
