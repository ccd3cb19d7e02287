// Package telegram é um cliente mínimo da Bot API: somente os métodos e
// campos que o relay de notificações consome.
package telegram

// Update é um evento recebido da Bot API (long-poll ou webhook)
type Update struct {
	UpdateID      int64          `json:"update_id"`
	Message       *Message       `json:"message,omitempty"`
	CallbackQuery *CallbackQuery `json:"callback_query,omitempty"`
}

// Message representa uma mensagem do Telegram
type Message struct {
	MessageID      int64    `json:"message_id"`
	From           *User    `json:"from,omitempty"`
	Chat           Chat     `json:"chat"`
	Text           string   `json:"text,omitempty"`
	ReplyToMessage *Message `json:"reply_to_message,omitempty"`
}

// Chat identifica a conversa de origem/destino
type Chat struct {
	ID int64 `json:"id"`
}

// User identifica o remetente
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username,omitempty"`
}

// CallbackQuery é o acionamento de um botão inline
type CallbackQuery struct {
	ID      string   `json:"id"`
	From    User     `json:"from"`
	Data    string   `json:"data,omitempty"`
	Message *Message `json:"message,omitempty"`
}

// InlineKeyboardButton é um botão de ação com payload opaco ou URL
type InlineKeyboardButton struct {
	Text         string `json:"text"`
	CallbackData string `json:"callback_data,omitempty"`
	URL          string `json:"url,omitempty"`
}

// InlineKeyboardMarkup é o teclado inline anexado a uma mensagem
type InlineKeyboardMarkup struct {
	InlineKeyboard [][]InlineKeyboardButton `json:"inline_keyboard"`
}

// CallbackButton monta um teclado de um único botão com payload de callback
func CallbackButton(text, data string) *InlineKeyboardMarkup {
	return &InlineKeyboardMarkup{
		InlineKeyboard: [][]InlineKeyboardButton{{{Text: text, CallbackData: data}}},
	}
}

// URLButton monta um teclado de um único botão que abre uma URL
func URLButton(text, url string) *InlineKeyboardMarkup {
	return &InlineKeyboardMarkup{
		InlineKeyboard: [][]InlineKeyboardButton{{{Text: text, URL: url}}},
	}
}

// EmptyKeyboard remove os botões de uma mensagem existente
func EmptyKeyboard() *InlineKeyboardMarkup {
	return &InlineKeyboardMarkup{InlineKeyboard: [][]InlineKeyboardButton{}}
}
