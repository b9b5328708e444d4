// Package slack — минимальный клиент Slack Web API и типы Block Kit,
// достаточные для процесса согласования: карточка с кнопками, модальная
// форма, ephemeral-уведомления.
package slack

// Text — текстовый объект Block Kit (plain_text или mrkdwn).
type Text struct {
	Type  string `json:"type"`
	Text  string `json:"text"`
	Emoji bool   `json:"emoji,omitempty"`
}

func PlainText(s string) *Text { return &Text{Type: "plain_text", Text: s, Emoji: true} }
func Markdown(s string) *Text  { return &Text{Type: "mrkdwn", Text: s} }

// Block — универсальный блок карточки. Тип определяет, какие поля заполнены.
type Block struct {
	Type     string    `json:"type"`
	BlockID  string    `json:"block_id,omitempty"`
	Text     *Text     `json:"text,omitempty"`
	Elements []Element `json:"elements,omitempty"`
	Label    *Text     `json:"label,omitempty"`
	Element  *Element  `json:"element,omitempty"`
}

func Section(text *Text) Block    { return Block{Type: "section", Text: text} }
func Divider() Block              { return Block{Type: "divider"} }
func Header(text *Text) Block     { return Block{Type: "header", Text: text} }
func Actions(el ...Element) Block { return Block{Type: "actions", Elements: el} }

// Element — интерактивный элемент: кнопка, селект, datepicker, текстовый ввод.
type Element struct {
	Type        string   `json:"type"`
	ActionID    string   `json:"action_id,omitempty"`
	Text        *Text    `json:"text,omitempty"`
	Style       string   `json:"style,omitempty"`
	Value       string   `json:"value,omitempty"`
	Placeholder *Text    `json:"placeholder,omitempty"`
	Options     []Option `json:"options,omitempty"`
}

// Option — пункт static_select.
type Option struct {
	Text  *Text  `json:"text"`
	Value string `json:"value"`
}

func Button(actionID, label, style, value string) Element {
	return Element{
		Type:     "button",
		ActionID: actionID,
		Text:     PlainText(label),
		Style:    style,
		Value:    value,
	}
}

// View — модальное окно (views.open).
type View struct {
	Type       string  `json:"type"`
	CallbackID string  `json:"callback_id"`
	Title      *Text   `json:"title"`
	Submit     *Text   `json:"submit,omitempty"`
	Close      *Text   `json:"close,omitempty"`
	Blocks     []Block `json:"blocks"`

	// PrivateMetadata — сквозные данные формы (например, ts сообщения,
	// из которого форма открыта).
	PrivateMetadata string `json:"private_metadata,omitempty"`
}

// InputBlock — input-блок модальной формы.
func InputBlock(blockID, label string, element Element) Block {
	return Block{
		Type:    "input",
		BlockID: blockID,
		Label:   PlainText(label),
		Element: &element,
	}
}
