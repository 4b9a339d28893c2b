package render

// ActionKind names what the transport must do.
type ActionKind int

const (
	// ActionReply sends a plain text reply to the message that triggered the event.
	ActionReply ActionKind = iota + 1
	// ActionSendPhoto sends a new photo with caption and keyboard.
	ActionSendPhoto
	// ActionSendText sends a new text message with keyboard.
	ActionSendText
	// ActionEditPhoto replaces the photo, caption and keyboard of the triggering message.
	ActionEditPhoto
	// ActionEditText replaces the text and keyboard of the triggering message.
	ActionEditText
	// ActionDelete deletes the triggering message.
	ActionDelete
	// ActionAnswer acknowledges a callback so the client stops its loading indicator.
	ActionAnswer
)

func (k ActionKind) String() string {
	switch k {
	case ActionReply:
		return "reply"
	case ActionSendPhoto:
		return "send_photo"
	case ActionSendText:
		return "send_text"
	case ActionEditPhoto:
		return "edit_photo"
	case ActionEditText:
		return "edit_text"
	case ActionDelete:
		return "delete"
	case ActionAnswer:
		return "answer"
	default:
		return "unknown"
	}
}

// Action is one render instruction.
type Action struct {
	Kind     ActionKind
	Text     string
	PhotoURL string
	Keyboard Keyboard
}

// Response is the ordered list of actions produced for one event.
type Response []Action

func Reply(text string) Action { return Action{Kind: ActionReply, Text: text} }

func SendPhoto(url, caption string, kb Keyboard) Action {
	return Action{Kind: ActionSendPhoto, PhotoURL: url, Text: caption, Keyboard: kb}
}

func SendText(text string, kb Keyboard) Action {
	return Action{Kind: ActionSendText, Text: text, Keyboard: kb}
}

func EditPhoto(url, caption string, kb Keyboard) Action {
	return Action{Kind: ActionEditPhoto, PhotoURL: url, Text: caption, Keyboard: kb}
}

func EditText(text string, kb Keyboard) Action {
	return Action{Kind: ActionEditText, Text: text, Keyboard: kb}
}

func Delete() Action { return Action{Kind: ActionDelete} }

func Answer() Action { return Action{Kind: ActionAnswer} }

// Kinds lists the action kinds in order.
func (r Response) Kinds() []ActionKind {
	kinds := make([]ActionKind, 0, len(r))
	for _, a := range r {
		kinds = append(kinds, a.Kind)
	}
	return kinds
}

// Find returns the first action of kind k.
func (r Response) Find(k ActionKind) (Action, bool) {
	for _, a := range r {
		if a.Kind == k {
			return a, true
		}
	}
	return Action{}, false
}
