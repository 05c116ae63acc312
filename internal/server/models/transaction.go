package models

import "time"

// Tag is a name/value pair attached to a stored transaction.
type Tag struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Transaction is a stored object. ID is derived from Owner and the payload.
type Transaction struct {
	ID          string
	Owner       string
	Size        int64
	ContentType string
	Tags        []Tag
	Price       int64
	CreatedAt   time.Time
}

// ContentTypeTag returns the value of the Content-Type tag, if any.
func ContentTypeTag(tags []Tag) string {
	for _, t := range tags {
		if t.Name == "Content-Type" {
			return t.Value
		}
	}
	return ""
}
