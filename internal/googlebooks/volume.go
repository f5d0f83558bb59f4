package googlebooks

import (
	"bookherald/internal/catalog"
	"bookherald/internal/isbn"
)

// SearchResponse models the volumes API search payload.
type SearchResponse struct {
	TotalItems int      `json:"totalItems"`
	Items      []Volume `json:"items"`
}

// Volume is a single search result.
type Volume struct {
	ID         string     `json:"id"`
	VolumeInfo VolumeInfo `json:"volumeInfo"`
}

// VolumeInfo carries the bibliographic fields of a volume.
type VolumeInfo struct {
	Title               string               `json:"title"`
	Authors             []string             `json:"authors"`
	Publisher           string               `json:"publisher"`
	PublishedDate       string               `json:"publishedDate"`
	Description         string               `json:"description"`
	IndustryIdentifiers []IndustryIdentifier `json:"industryIdentifiers"`
	ImageLinks          ImageLinks           `json:"imageLinks"`
	InfoLink            string               `json:"infoLink"`
	PreviewLink         string               `json:"previewLink"`
}

// IndustryIdentifier is one identifier entry (ISBN_10, ISBN_13, OTHER).
type IndustryIdentifier struct {
	Type       string `json:"type"`
	Identifier string `json:"identifier"`
}

// ImageLinks holds cover image URLs by size.
type ImageLinks struct {
	SmallThumbnail string `json:"smallThumbnail"`
	Thumbnail      string `json:"thumbnail"`
}

// ISBN13 extracts the canonical ISBN-13 for a volume. An ISBN_13 identifier
// wins; otherwise a valid ISBN_10 is converted. The second return is false
// when the volume carries no usable identifier.
func (v Volume) ISBN13() (string, bool) {
	var fallback string
	for _, id := range v.VolumeInfo.IndustryIdentifiers {
		switch id.Type {
		case "ISBN_13":
			if normalized, ok := isbn.Normalize(id.Identifier); ok {
				return normalized, true
			}
		case "ISBN_10":
			if fallback == "" {
				if normalized, ok := isbn.Normalize(id.Identifier); ok {
					fallback = normalized
				}
			}
		}
	}
	if fallback != "" {
		return fallback, true
	}
	return "", false
}

// ToBookInput converts a volume into a catalog upsert. The second return is
// false when the volume has no usable ISBN or no title and must be skipped.
func (v Volume) ToBookInput() (catalog.BookInput, bool) {
	isbn13, ok := v.ISBN13()
	if !ok || v.VolumeInfo.Title == "" {
		return catalog.BookInput{}, false
	}

	info := v.VolumeInfo
	cover := info.ImageLinks.Thumbnail
	if cover == "" {
		cover = info.ImageLinks.SmallThumbnail
	}

	var links []catalog.Link
	if info.InfoLink != "" {
		links = append(links, catalog.Link{Label: "Google Books", URL: info.InfoLink})
	}
	if info.PreviewLink != "" {
		links = append(links, catalog.Link{Label: "Preview", URL: info.PreviewLink})
	}
	links = append(links, catalog.Link{Label: "Amazon", URL: "https://www.amazon.co.jp/s?k=" + isbn13})

	return catalog.BookInput{
		ISBN13:        isbn13,
		Title:         info.Title,
		Authors:       info.Authors,
		Publisher:     info.Publisher,
		PublishedDate: info.PublishedDate,
		Description:   info.Description,
		CoverURL:      cover,
		Links:         links,
		Source:        "google_books",
	}, true
}
