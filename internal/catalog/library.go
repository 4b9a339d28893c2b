package catalog

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
)

// TagPrefix marks tags the bot creates for requesters; they are never offered for selection.
const TagPrefix = "searcharr-"

// LibraryConfig names the folders, profiles and tags an operator allows for one catalog.
// Entries may be ids or names/paths.
type LibraryConfig struct {
	RootFolders      []string
	QualityProfiles  []string
	MetadataProfiles []string
	SelectableTags   []string
	ExcludedTags     []string
}

// Library is a catalog together with the options resolved against its server at startup.
type Library struct {
	Catalog
	rootFolders      []RootFolder
	qualityProfiles  []QualityProfile
	metadataProfiles []MetadataProfile
	selectableTags   []string
	excludedTags     []string
}

// NewLibrary builds a Library with options already known, without contacting the server.
func NewLibrary(c Catalog, folders []RootFolder, qualities []QualityProfile, metadata []MetadataProfile) *Library {
	return &Library{Catalog: c, rootFolders: folders, qualityProfiles: qualities, metadataProfiles: metadata}
}

// Configure resolves the configured options against the server. Unknown entries are logged
// and skipped; when none resolve, every option the server reports is used.
func Configure(ctx context.Context, c Catalog, cfg LibraryConfig, log *slog.Logger) (*Library, error) {
	if log == nil {
		log = slog.Default()
	}
	log = log.With(slog.String("catalog", c.Kind().String()))
	lib := &Library{
		Catalog:        c,
		selectableTags: cfg.SelectableTags,
		excludedTags:   cfg.ExcludedTags,
	}

	folders, err := c.RootFolders(ctx)
	if err != nil {
		return nil, err
	}
	for _, ref := range cfg.RootFolders {
		folder, ok := ResolveRootFolder(folders, ref)
		if !ok {
			log.Error("configured root folder not found", slog.String("root_folder", ref))
			continue
		}
		lib.rootFolders = append(lib.rootFolders, folder)
	}
	if len(lib.rootFolders) == 0 {
		lib.rootFolders = folders
	}

	qualities, err := c.QualityProfiles(ctx)
	if err != nil {
		return nil, err
	}
	for _, ref := range cfg.QualityProfiles {
		profile, ok := ResolveQualityProfile(qualities, ref)
		if !ok {
			log.Error("configured quality profile not found", slog.String("quality_profile", ref))
			continue
		}
		lib.qualityProfiles = append(lib.qualityProfiles, profile)
	}
	if len(lib.qualityProfiles) == 0 {
		lib.qualityProfiles = qualities
	}

	if c.Kind() == KindBook {
		metadata, err := c.MetadataProfiles(ctx)
		if err != nil {
			return nil, err
		}
		for _, ref := range cfg.MetadataProfiles {
			profile, ok := resolveMetadataProfile(metadata, ref)
			if !ok {
				log.Error("configured metadata profile not found", slog.String("metadata_profile", ref))
				continue
			}
			lib.metadataProfiles = append(lib.metadataProfiles, profile)
		}
		if len(lib.metadataProfiles) == 0 {
			lib.metadataProfiles = metadata
		}
	}

	log.Info("catalog configured",
		slog.Int("root_folders", len(lib.rootFolders)),
		slog.Int("quality_profiles", len(lib.qualityProfiles)),
		slog.Int("metadata_profiles", len(lib.metadataProfiles)))
	return lib, nil
}

func (l *Library) RootFolderOptions() []RootFolder           { return l.rootFolders }
func (l *Library) QualityProfileOptions() []QualityProfile   { return l.qualityProfiles }
func (l *Library) MetadataProfileOptions() []MetadataProfile { return l.metadataProfiles }

// SelectableTags lists the server's tags the user may pick from.
func (l *Library) SelectableTags(ctx context.Context) ([]Tag, error) {
	tags, err := l.Tags(ctx)
	if err != nil {
		return nil, err
	}
	return FilterTags(tags, l.selectableTags, l.excludedTags), nil
}

// ResolveRootFolder finds a root folder by id or path.
func ResolveRootFolder(folders []RootFolder, ref string) (RootFolder, bool) {
	ref = strings.TrimSpace(ref)
	if id, err := strconv.ParseInt(ref, 10, 64); err == nil {
		for _, f := range folders {
			if f.ID == id {
				return f, true
			}
		}
	}
	for _, f := range folders {
		if f.Path == ref {
			return f, true
		}
	}
	return RootFolder{}, false
}

// ResolveQualityProfile finds a quality profile by id or name.
func ResolveQualityProfile(profiles []QualityProfile, ref string) (QualityProfile, bool) {
	ref = strings.TrimSpace(ref)
	if id, err := strconv.ParseInt(ref, 10, 64); err == nil {
		for _, p := range profiles {
			if p.ID == id {
				return p, true
			}
		}
	}
	for _, p := range profiles {
		if strings.EqualFold(p.Name, ref) {
			return p, true
		}
	}
	return QualityProfile{}, false
}

func resolveMetadataProfile(profiles []MetadataProfile, ref string) (MetadataProfile, bool) {
	ref = strings.TrimSpace(ref)
	if id, err := strconv.ParseInt(ref, 10, 64); err == nil {
		for _, p := range profiles {
			if p.ID == id {
				return p, true
			}
		}
	}
	for _, p := range profiles {
		if strings.EqualFold(p.Name, ref) {
			return p, true
		}
	}
	return MetadataProfile{}, false
}

// FilterTags drops bot-created tags, keeps only allowed ones when an allow-list is given
// (by label or id) and removes excluded labels.
func FilterTags(tags []Tag, allowed, excluded []string) []Tag {
	out := make([]Tag, 0, len(tags))
	for _, tag := range tags {
		if strings.HasPrefix(tag.Label, TagPrefix) {
			continue
		}
		if len(allowed) > 0 && !matchesTag(tag, allowed) {
			continue
		}
		if matchesLabel(tag, excluded) {
			continue
		}
		out = append(out, tag)
	}
	return out
}

func matchesTag(tag Tag, refs []string) bool {
	id := strconv.FormatInt(tag.ID, 10)
	for _, ref := range refs {
		ref = strings.TrimSpace(ref)
		if ref == id || strings.EqualFold(ref, tag.Label) {
			return true
		}
	}
	return false
}

func matchesLabel(tag Tag, labels []string) bool {
	for _, label := range labels {
		if strings.EqualFold(strings.TrimSpace(label), tag.Label) {
			return true
		}
	}
	return false
}
