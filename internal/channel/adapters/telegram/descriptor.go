// Package telegram connects the command dispatcher and the conversation engine to a
// Telegram bot over long polling.
package telegram

// Type names the transport in logs.
const Type = "telegram"
