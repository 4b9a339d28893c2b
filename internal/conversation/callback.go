package conversation

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"

	"github.com/memohai/searcharr/internal/callback"
	"github.com/memohai/searcharr/internal/catalog"
	"github.com/memohai/searcharr/internal/i18n"
	"github.com/memohai/searcharr/internal/render"
	"github.com/memohai/searcharr/internal/session"
)

// event carries one decoded button press through the handlers.
type event struct {
	caller Caller
	level  session.AuthLevel
	conv   session.Conversation
	data   callback.Data
}

// HandleCallback applies one button press. The returned response always ends with an
// Answer action; a non-nil error is a storage failure the transport should log.
func (e *Engine) HandleCallback(ctx context.Context, caller Caller, raw string) (render.Response, error) {
	e.logger.Debug("callback received", slog.Int64("user_id", caller.ID), slog.String("data", raw))

	level, err := e.AuthLevel(ctx, caller.ID)
	if err != nil {
		return answered(), err
	}
	if level == session.AuthNone {
		text := e.tr.Aliases("callback_auth_required", e.settings.startAliases(), "password")
		return answered(render.Reply(text), render.Delete()), nil
	}
	if strings.TrimSpace(raw) == "" {
		return answered(), nil
	}

	conv, err := e.store.GetConversation(ctx, callback.CID(raw))
	if errors.Is(err, session.ErrConversationNotFound) {
		return answered(render.Reply(e.tr.T("convo_not_found", nil)), render.Delete()), nil
	}
	if err != nil {
		return answered(), err
	}

	data, err := callback.Parse(raw)
	if err != nil {
		e.logger.Warn("ignoring malformed callback", slog.String("data", raw), slog.Any("error", err))
		return answered(), nil
	}
	if !data.Op.Known() {
		e.logger.Warn("unknown callback op", slog.String("op", string(data.Op)), slog.String("cid", conv.ID))
		return answered(), nil
	}
	if err := e.applyFlags(ctx, data); err != nil {
		return answered(), err
	}

	ev := event{caller: caller, level: level, conv: conv, data: data}
	switch data.Op {
	case callback.OpNoop:
		return answered(), nil
	case callback.OpCancel:
		if err := e.store.DeleteConversation(ctx, conv.ID); err != nil {
			return answered(), err
		}
		return answered(render.Reply(e.tr.T("search_canceled", nil)), render.Delete()), nil
	case callback.OpDone:
		if err := e.store.DeleteConversation(ctx, conv.ID); err != nil {
			return answered(), err
		}
		return answered(render.Delete()), nil
	case callback.OpPrev:
		return e.move(ev, -1)
	case callback.OpNext:
		return e.move(ev, 1)
	case callback.OpAdd:
		return e.add(ctx, ev)
	case callback.OpRemoveUser, callback.OpMakeAdmin, callback.OpRemoveAdmin:
		return e.manageUser(ctx, ev)
	}
	return answered(), nil
}

// applyFlags stores every flag as add-data before the op runs. A tag press also appends
// the tag to the accumulated list.
func (e *Engine) applyFlags(ctx context.Context, data callback.Data) error {
	for _, flag := range data.Flags {
		e.logger.Debug("updating add data", slog.String("cid", data.CID), slog.String("key", flag.Key), slog.String("value", flag.Value))
		var err error
		if flag.Key == session.KeyTag {
			err = e.store.AppendTag(ctx, data.CID, flag.Value)
		} else {
			err = e.store.SetAddData(ctx, data.CID, flag.Key, flag.Value)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// move pages through results. Out of range moves only acknowledge.
func (e *Engine) move(ev event, delta int) (render.Response, error) {
	target := int(ev.data.Index) + delta
	if ev.conv.Kind == catalog.KindUsers {
		users, err := ev.conv.Users()
		if err != nil {
			e.logger.Error("decode users", slog.String("cid", ev.conv.ID), slog.Any("error", err))
			return answered(), nil
		}
		if target < 0 || target >= render.UsersPages(len(users)) {
			return answered(), nil
		}
		text, kb := e.builder.Users(ev.conv.ID, users, target)
		return answered(render.EditText(text, kb)), nil
	}

	items, err := ev.conv.Items()
	if err != nil {
		e.logger.Error("decode results", slog.String("cid", ev.conv.ID), slog.Any("error", err))
		return answered(), nil
	}
	if target < 0 || target >= len(items) {
		return answered(), nil
	}
	item := items[target]
	caption, kb := e.builder.Item(ev.conv.Kind, item, ev.conv.ID, target, len(items), render.Wizard{})
	return answered(render.EditPhoto(item.PosterURL(), caption, kb)), nil
}

// manageUser runs the admin-only user operations. The caller's admin flag is read from the
// store on every press.
func (e *Engine) manageUser(ctx context.Context, ev event) (render.Response, error) {
	if ev.level != session.AuthAdmin {
		return answered(render.Reply(e.adminRequired()), render.Delete()), nil
	}
	if ev.conv.Kind != catalog.KindUsers {
		e.logger.Warn("user op on non users conversation", slog.String("cid", ev.conv.ID), slog.String("op", string(ev.data.Op)))
		return answered(), nil
	}

	userID := ev.data.Index
	var (
		err       error
		statusKey string
	)
	switch ev.data.Op {
	case callback.OpRemoveUser:
		statusKey = "removed_user"
		err = e.store.RemoveUser(ctx, userID)
	case callback.OpMakeAdmin:
		statusKey = "added_admin_access"
		err = e.store.SetAdmin(ctx, userID, true)
	case callback.OpRemoveAdmin:
		statusKey = "removed_admin_access"
		err = e.store.SetAdmin(ctx, userID, false)
	}
	if err != nil {
		return answered(render.Reply(e.tr.T("user_update_failed", i18n.Args{"user": userID}))), err
	}
	e.logger.Info("user updated", slog.String("op", string(ev.data.Op)), slog.Int64("user_id", userID), slog.Int64("by", ev.caller.ID))

	users, err := e.store.ListUsers(ctx, false)
	if err != nil {
		return answered(), err
	}
	payload, err := json.Marshal(users)
	if err != nil {
		return answered(), err
	}
	if err := e.store.ReplaceResults(ctx, ev.conv.ID, payload); err != nil {
		return answered(), err
	}
	text, kb := e.builder.Users(ev.conv.ID, users, 0)
	status := e.tr.T(statusKey, i18n.Args{"user": userID})
	return answered(render.EditText(status+text, kb)), nil
}

// answered appends the acknowledgement every callback needs.
func answered(actions ...render.Action) render.Response {
	return append(render.Response(actions), render.Answer())
}
