package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Link is the persisted short link.
type Link struct {
	ID         int64    `gorm:"primaryKey"`
	Code       string   `gorm:"size:24;uniqueIndex;not null"`
	URL        string   `gorm:"type:text;not null"`
	OSURLs     OSURLMap `gorm:"type:jsonb"`
	Clicks     int64    `gorm:"not null;default:0"`
	ClickLimit *int64
	IsActive   bool `gorm:"not null;default:true"`
	ExpiresAt  *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (Link) TableName() string {
	return "links"
}

// UsableAt reports whether the link may still serve a redirect at the
// given instant. Clicks is expected to already include the click being
// decided, so the click that reaches the limit is the last one served.
func (l *Link) UsableAt(now time.Time) bool {
	if !l.IsActive {
		return false
	}
	if l.ExpiresAt != nil && !now.Before(*l.ExpiresAt) {
		return false
	}
	if l.ClickLimit != nil && l.Clicks > *l.ClickLimit {
		return false
	}
	return true
}

// DestinationFor selects the redirect target for a user agent: the default
// URL, overwritten by every matching OS override in AllOS order. For real
// user agents at most one override applies; on a pathological multi-match
// the last enumerated OS wins.
func (l *Link) DestinationFor(userAgent string) string {
	target := l.URL
	for _, os := range AllOS {
		override, ok := l.OSURLs[os]
		if !ok || override == "" {
			continue
		}
		if os.MatchesUserAgent(userAgent) {
			target = override
		}
	}
	return target
}

// OSURLMap stores per-OS destination overrides as a jsonb column.
type OSURLMap map[OS]string

func (m OSURLMap) Value() (driver.Value, error) {
	if len(m) == 0 {
		return nil, nil
	}
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal os urls: %w", err)
	}
	return string(data), nil
}

func (m *OSURLMap) Scan(value interface{}) error {
	if value == nil {
		*m = nil
		return nil
	}

	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type for os urls: %T", value)
	}

	if err := json.Unmarshal(data, m); err != nil {
		return fmt.Errorf("failed to unmarshal os urls: %w", err)
	}
	return nil
}
