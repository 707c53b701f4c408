package service

import (
	"PIVOT-Backend/internal/config"
	"PIVOT-Backend/internal/domain"
	"PIVOT-Backend/internal/repository"
	"PIVOT-Backend/pkg/random"
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

var (
	// ErrCodeTaken is returned when a requested custom code already exists.
	ErrCodeTaken = errors.New("code already taken")

	// ErrAllocationExhausted is returned when random generation failed to
	// find a free code within the attempt budget. The caller may resubmit;
	// no partial record is left behind.
	ErrAllocationExhausted = errors.New("failed to allocate a unique code")

	// ErrLinkNotFound is returned when no link exists for a code.
	ErrLinkNotFound = errors.New("link not found")

	// ErrLinkGone is returned when a link exists but is inactive, expired
	// or exhausted. The HTTP layer renders it the same as ErrLinkNotFound.
	ErrLinkGone = errors.New("link no longer active")
)

var codePattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// ValidationError reports a malformed creation input, tied to the field
// that failed.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// CreateLinkInput carries everything the allocator needs to mint a link.
type CreateLinkInput struct {
	URL        string               `validate:"required,url"`
	CustomCode string               `validate:"omitempty,min=3,max=24,shortcode"`
	OSURLs     map[domain.OS]string `validate:"omitempty,dive,url"`
	ExpiresAt  *time.Time
	ClickLimit *int64 `validate:"omitempty,gt=0"`
}

// ShortenerService implements the code allocator and the redirect resolver.
type ShortenerService struct {
	storage  repository.Storage
	config   *config.Shortener
	validate *validator.Validate
}

func NewShortener(storage repository.Storage, cfg *config.Shortener) *ShortenerService {
	v := validator.New()
	// The custom-code charset is a hard contract, not derivable from the
	// built-in tags.
	_ = v.RegisterValidation("shortcode", func(fl validator.FieldLevel) bool {
		return codePattern.MatchString(fl.Field().String())
	})

	return &ShortenerService{
		storage:  storage,
		config:   cfg,
		validate: v,
	}
}

// Shorten validates the input, decides the short code (custom or randomly
// generated with bounded collision retries) and persists exactly one new
// link. Empty OS override URLs are dropped, never stored.
func (s *ShortenerService) Shorten(ctx context.Context, in CreateLinkInput) (*domain.Link, error) {
	in.OSURLs = pruneOverrides(in.OSURLs)
	for os := range in.OSURLs {
		if !os.Valid() {
			return nil, &ValidationError{Field: "os_urls", Message: fmt.Sprintf("unknown os %q", string(os))}
		}
	}

	if err := s.validate.Struct(in); err != nil {
		return nil, asValidationError(err)
	}

	var code string
	if in.CustomCode != "" {
		exists, err := s.storage.CodeExists(ctx, in.CustomCode)
		if err != nil {
			return nil, fmt.Errorf("failed to check custom code existence: %w", err)
		}
		if exists {
			return nil, ErrCodeTaken
		}
		code = in.CustomCode
	} else {
		// Collisions are astronomically unlikely in steady state, so a
		// string of them means something is wrong; bail out instead of
		// retrying forever.
		for i := 0; i < s.config.MaxAttempts; i++ {
			candidate, err := random.NewCode(s.config.CodeLength)
			if err != nil {
				return nil, fmt.Errorf("failed to generate code: %w", err)
			}
			exists, err := s.storage.CodeExists(ctx, candidate)
			if err != nil {
				return nil, fmt.Errorf("failed to check code existence: %w", err)
			}
			if !exists {
				code = candidate
				break
			}
		}
		if code == "" {
			return nil, ErrAllocationExhausted
		}
	}

	link := &domain.Link{
		Code:       code,
		URL:        in.URL,
		OSURLs:     in.OSURLs,
		ClickLimit: in.ClickLimit,
		ExpiresAt:  in.ExpiresAt,
		IsActive:   true,
	}

	if err := s.storage.SaveLink(ctx, link); err != nil {
		if errors.Is(err, repository.ErrCodeExists) {
			// Lost the race between the existence check and the insert;
			// the unique constraint is the authoritative guard.
			if in.CustomCode != "" {
				return nil, ErrCodeTaken
			}
			return nil, ErrAllocationExhausted
		}
		return nil, fmt.Errorf("failed to save link: %w", err)
	}

	return link, nil
}

// Resolve finds the link, records the visit and selects the destination
// for the user agent. The lookup and the click increment are one store
// operation, so a resolution that finds a row always counts, even when the
// link is then judged dead.
func (s *ShortenerService) Resolve(ctx context.Context, code, userAgent string) (string, error) {
	link, err := s.storage.FindLinkAndCountClick(ctx, code)
	if err != nil {
		if errors.Is(err, repository.ErrCodeNotFound) {
			return "", ErrLinkNotFound
		}
		return "", fmt.Errorf("failed to resolve code: %w", err)
	}

	if !link.UsableAt(time.Now()) {
		return "", ErrLinkGone
	}

	return link.DestinationFor(userAgent), nil
}

// pruneOverrides drops overrides whose URL is empty, so a form checkbox
// enabled without a URL never persists an empty string.
func pruneOverrides(osURLs map[domain.OS]string) map[domain.OS]string {
	if len(osURLs) == 0 {
		return nil
	}
	pruned := make(map[domain.OS]string, len(osURLs))
	for os, url := range osURLs {
		if url != "" {
			pruned[os] = url
		}
	}
	if len(pruned) == 0 {
		return nil
	}
	return pruned
}

func asValidationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return &ValidationError{Field: "request", Message: err.Error()}
	}

	// Map-value failures report fields like "OSURLs[android]".
	fe := verrs[0]
	field := fe.StructField()
	switch {
	case field == "URL":
		return &ValidationError{Field: "url", Message: "must be a valid absolute URL"}
	case field == "CustomCode":
		return &ValidationError{Field: "custom_code", Message: "must be 3-24 characters of A-Za-z0-9_-"}
	case strings.HasPrefix(field, "OSURLs"):
		return &ValidationError{Field: "os_urls", Message: "overrides must be valid absolute URLs"}
	case field == "ClickLimit":
		return &ValidationError{Field: "click_limit", Message: "must be a positive integer"}
	default:
		return &ValidationError{Field: field, Message: "is invalid"}
	}
}
