package conversation

import (
	"context"

	"github.com/memohai/searcharr/internal/catalog"
)

// Source is a catalog together with the options an operator allowed for it.
type Source interface {
	catalog.Catalog
	RootFolderOptions() []catalog.RootFolder
	QualityProfileOptions() []catalog.QualityProfile
	MetadataProfileOptions() []catalog.MetadataProfile
	SelectableTags(ctx context.Context) ([]catalog.Tag, error)
}

// Passwords checks the configured bot passwords.
type Passwords interface {
	MatchUser(password string) bool
	MatchAdmin(password string) bool
}
