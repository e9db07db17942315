package domain

import "time"

// Link is a shortened URL. Exactly one Link exists per distinct URL.
type Link struct {
	ID        int64     `gorm:"primaryKey;column:id" json:"id"`
	Code      string    `gorm:"column:code;size:32;uniqueIndex;not null" json:"code"`
	URL       string    `gorm:"column:url;size:2048;uniqueIndex;not null" json:"url"`
	Title     string    `gorm:"column:title;size:512" json:"title"`
	BaseURL   string    `gorm:"column:base_url;size:255" json:"base_url,omitempty"`
	OwnerID   *int64    `gorm:"column:owner_id;index" json:"owner_id,omitempty"`
	Visits    int64     `gorm:"column:visits;not null;default:0" json:"visits"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`

	Owner *User `gorm:"foreignKey:OwnerID" json:"-"`
}

// TableName возвращает название таблицы для GORM
func (Link) TableName() string {
	return "links"
}

// ShortURL joins the creation origin and the code. Empty when the link was
// created without an Origin header.
func (l *Link) ShortURL() string {
	if l.BaseURL == "" {
		return ""
	}
	return l.BaseURL + "/" + l.Code
}

// LinkTarget is the part of a Link the redirect path needs. It is what the
// lookup cache stores.
type LinkTarget struct {
	ID  int64  `json:"id"`
	URL string `json:"url"`
}

// Target returns the cacheable projection of the link.
func (l *Link) Target() LinkTarget {
	return LinkTarget{ID: l.ID, URL: l.URL}
}
