package conversation

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/memohai/searcharr/internal/catalog"
	"github.com/memohai/searcharr/internal/i18n"
	"github.com/memohai/searcharr/internal/render"
	"github.com/memohai/searcharr/internal/session"
)

// Step is the first unsatisfied step of the add wizard.
type Step int

const (
	AwaitingPath Step = iota
	AwaitingQuality
	AwaitingMetadata
	AwaitingMonitor
	AwaitingTags
	Ready
)

func (s Step) String() string {
	switch s {
	case AwaitingPath:
		return "awaiting_path"
	case AwaitingQuality:
		return "awaiting_quality"
	case AwaitingMetadata:
		return "awaiting_metadata"
	case AwaitingMonitor:
		return "awaiting_monitor"
	case AwaitingTags:
		return "awaiting_tags"
	default:
		return "ready"
	}
}

// NextStep derives the wizard position from accumulated add-data. Steps are strictly
// sequential; a present key always satisfies its step.
func NextStep(kind catalog.Kind, data session.AddData, ks KindSettings) Step {
	switch {
	case !data.Has(session.KeyPath):
		return AwaitingPath
	case !data.Has(session.KeyQuality):
		return AwaitingQuality
	case kind == catalog.KindBook && !data.Has(session.KeyMetadata):
		return AwaitingMetadata
	case kind == catalog.KindSeries && ks.SeasonMonitorPrompt && !data.Has(session.KeyMonitor):
		return AwaitingMonitor
	case ks.AllowUserTags && !data.Has(session.KeyTagsDone):
		return AwaitingTags
	default:
		return Ready
	}
}

// add advances the wizard by one prompt, auto-selecting single options on the way, or
// submits once every step is satisfied.
func (e *Engine) add(ctx context.Context, ev event) (render.Response, error) {
	kind := ev.conv.Kind
	if kind == catalog.KindUsers {
		e.logger.Warn("add on users conversation", slog.String("cid", ev.conv.ID))
		return answered(), nil
	}
	src, ok := e.sources[kind]
	if !ok {
		return answered(render.Reply(e.tr.T(disabledKey(kind), nil))), nil
	}
	items, err := ev.conv.Items()
	if err != nil {
		e.logger.Error("decode results", slog.String("cid", ev.conv.ID), slog.Any("error", err))
		return answered(), nil
	}
	index := int(ev.data.Index)
	if index < 0 || index >= len(items) {
		e.logger.Warn("add for result out of range", slog.String("cid", ev.conv.ID), slog.Int("index", index))
		return answered(), nil
	}
	item := items[index]
	ks := e.settings.For(kind)
	cid := ev.conv.ID

	data, err := e.store.GetAddData(ctx, cid)
	if err != nil {
		return answered(), err
	}
	if err := e.normalizePath(ctx, cid, src, data); err != nil {
		return answered(), err
	}

	prompt := func(w render.Wizard) render.Response {
		caption, kb := e.builder.Item(kind, item, cid, index, len(items), w)
		return answered(render.EditPhoto(item.PosterURL(), caption, kb))
	}

	for {
		step := NextStep(kind, data, ks)
		e.logger.Debug("add wizard step", slog.String("cid", cid), slog.String("step", step.String()))
		switch step {
		case AwaitingPath:
			folders := src.RootFolderOptions()
			switch len(folders) {
			case 0:
				return e.configError(ctx, cid, "no_root_folders", kind)
			case 1:
				if err := e.set(ctx, cid, data, session.KeyPath, folders[0].Path); err != nil {
					return answered(), err
				}
			default:
				return prompt(render.Wizard{Paths: folders}), nil
			}
		case AwaitingQuality:
			profiles := src.QualityProfileOptions()
			switch len(profiles) {
			case 0:
				return e.configError(ctx, cid, "no_quality_profiles", kind)
			case 1:
				if err := e.set(ctx, cid, data, session.KeyQuality, strconv.FormatInt(profiles[0].ID, 10)); err != nil {
					return answered(), err
				}
			default:
				return prompt(render.Wizard{Qualities: profiles}), nil
			}
		case AwaitingMetadata:
			profiles := src.MetadataProfileOptions()
			switch len(profiles) {
			case 0:
				return e.configError(ctx, cid, "no_metadata_profiles", kind)
			case 1:
				if err := e.set(ctx, cid, data, session.KeyMetadata, strconv.FormatInt(profiles[0].ID, 10)); err != nil {
					return answered(), err
				}
			default:
				return prompt(render.Wizard{Metadata: profiles}), nil
			}
		case AwaitingMonitor:
			return prompt(render.Wizard{Monitor: true}), nil
		case AwaitingTags:
			tags, err := src.SelectableTags(ctx)
			if err != nil {
				e.logger.Error("list tags failed", slog.String("cid", cid), slog.Any("error", err))
			}
			if len(tags) == 0 {
				e.logger.Warn("no tags available for selection, skipping", slog.String("cid", cid), slog.String("kind", kind.String()))
				if err := e.set(ctx, cid, data, session.KeyTagsDone, "1"); err != nil {
					return answered(), err
				}
				continue
			}
			return prompt(render.Wizard{Tags: tags}), nil
		case Ready:
			return e.submit(ctx, ev, src, item, data, ks)
		}
	}
}

// normalizePath turns a numeric root folder value into its path. It runs once per value.
func (e *Engine) normalizePath(ctx context.Context, cid string, src Source, data session.AddData) error {
	if data.Has(session.KeyPathResolved) {
		return nil
	}
	id, ok := data.Int(session.KeyPath)
	if !ok {
		return nil
	}
	for _, folder := range src.RootFolderOptions() {
		if folder.ID == id {
			e.logger.Debug("root folder id resolved", slog.String("cid", cid), slog.Int64("id", id), slog.String("path", folder.Path))
			if err := e.set(ctx, cid, data, session.KeyPath, folder.Path); err != nil {
				return err
			}
			break
		}
	}
	if _, stillNumeric := data.Int(session.KeyPath); stillNumeric {
		e.logger.Warn("numeric root folder matched no folder id, using it as a path", slog.String("cid", cid), slog.String("path", data.Get(session.KeyPath)))
		return e.set(ctx, cid, data, session.KeyPathResolved, "1")
	}
	return nil
}

// finalizeTags unions the picked tags, the requester tag and the forced tags, and stores
// the result under t. A tag that cannot be resolved is logged and left out.
func (e *Engine) finalizeTags(ctx context.Context, ev event, src Source, data session.AddData, ks KindSettings) ([]int64, error) {
	ids := data.TagIDs()
	var labels []string
	if ks.TagWithUsername {
		labels = append(labels, ev.caller.TagName())
	}
	labels = append(labels, ks.ForcedTags...)
	for _, label := range labels {
		id, err := src.GetOrCreateTag(ctx, label)
		if err != nil {
			e.logger.Error("resolve tag failed", slog.String("cid", ev.conv.ID), slog.String("tag", label), slog.Any("error", err))
			continue
		}
		ids = append(ids, id)
	}
	joined := session.JoinTagIDs(ids)
	if err := e.set(ctx, ev.conv.ID, data, session.KeyTags, joined); err != nil {
		return nil, err
	}
	return session.ParseTagIDs(joined), nil
}

func (e *Engine) submit(ctx context.Context, ev event, src Source, item catalog.Item, data session.AddData, ks KindSettings) (render.Response, error) {
	kind := ev.conv.Kind
	tags, err := e.finalizeTags(ctx, ev, src, data, ks)
	if err != nil {
		return answered(), err
	}
	opts := catalog.AddOptions{
		RootFolder:      data.Get(session.KeyPath),
		Monitored:       ks.AddMonitored,
		Search:          ks.SearchOnAdd,
		Tags:            tags,
		SeasonFolders:   ks.SeasonFolders,
		MinAvailability: ks.MinAvailability,
	}
	opts.QualityProfileID, _ = data.Int(session.KeyQuality)
	switch kind {
	case catalog.KindBook:
		opts.MetadataProfileID, _ = data.Int(session.KeyMetadata)
	case catalog.KindSeries:
		if ks.SeasonMonitorPrompt {
			if n, ok := data.Int(session.KeyMonitor); ok && n >= 0 && int(n) < len(catalog.MonitorOptions) {
				opts.SeasonMonitor = catalog.MonitorOptions[n]
			}
		}
		opts.SeriesType = "standard"
		if data.Get(session.KeySeriesType) == "a" {
			opts.SeriesType = "anime"
		}
	}

	added, err := src.Add(ctx, item, opts)
	if err == nil && !added.Added() {
		err = catalog.ErrAddFailed
	}
	if err != nil {
		e.logger.Error("add failed", slog.String("cid", ev.conv.ID), slog.String("kind", kind.String()),
			slog.String("title", item.Title), slog.Any("error", err))
		text := e.tr.T("unknown_error_adding", i18n.Args{"kind": e.tr.T(kind.String(), nil)})
		return answered(render.Reply(text)), nil
	}

	e.logger.Info("title added", slog.String("cid", ev.conv.ID), slog.String("kind", kind.String()),
		slog.String("title", item.Title), slog.Int64("id", added.ID), slog.Int64("by", ev.caller.ID))
	if err := e.store.DeleteConversation(ctx, ev.conv.ID); err != nil {
		return answered(), err
	}
	return answered(render.Reply(e.tr.T("added", i18n.Args{"title": item.Title})), render.Delete()), nil
}

// configError ends the conversation when the operator left no option for a step.
func (e *Engine) configError(ctx context.Context, cid, key string, kind catalog.Kind) (render.Response, error) {
	e.logger.Error("add wizard has no options", slog.String("cid", cid), slog.String("missing", key), slog.String("kind", kind.String()))
	if err := e.store.DeleteConversation(ctx, cid); err != nil {
		return answered(), err
	}
	text := e.tr.T(key, i18n.Args{"kind": e.tr.T(kind.String(), nil), "app": kind.App()})
	return answered(render.Reply(text), render.Delete()), nil
}

// set persists one add-data value and mirrors it into data.
func (e *Engine) set(ctx context.Context, cid string, data session.AddData, key, value string) error {
	if err := e.store.SetAddData(ctx, cid, key, value); err != nil {
		return fmt.Errorf("store %s: %w", key, err)
	}
	data[key] = value
	return nil
}
