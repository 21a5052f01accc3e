// Package common holds result types shared by the inspect and seal
// packages and printed by the command line.
package common

import (
	"time"
)

// DocumentInfo is the metadata read back from an exported PDF.
type DocumentInfo struct {
	Author   string `json:"author"`
	Creator  string `json:"creator"`
	Producer string `json:"producer"`
	Subject  string `json:"subject"`
	Title    string `json:"title"`

	// ID is the first file identifier in hex.
	ID string `json:"id"`

	Pages        int       `json:"pages"`
	Keywords     []string  `json:"keywords"`
	ModDate      time.Time `json:"mod_date"`
	CreationDate time.Time `json:"creation_date"`
}

// PageInfo describes one page of an exported PDF.
type PageInfo struct {
	Number int     `json:"number"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Images []Image `json:"images"`
}

// Image is an image XObject placed on a page.
type Image struct {
	Name   string `json:"name"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Filter string `json:"filter"`
}

// SealInfo describes the detached seal of a document.
type SealInfo struct {
	Signer        string     `json:"signer"`
	SigningTime   *time.Time `json:"signing_time,omitempty"`
	TimeStamp     *time.Time `json:"time_stamp,omitempty"`
	DocumentHash  string     `json:"document_hash"`
	HashAlgorithm string     `json:"hash_algorithm"`
	Valid         bool       `json:"valid"`
	Error         string     `json:"error,omitempty"`
}
