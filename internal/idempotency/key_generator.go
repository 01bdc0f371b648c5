package idempotency

import "strconv"

// MessageKey identifies one incoming message. Telegram numbers messages per
// chat, so the chat ID is part of the key.
func MessageKey(chatID int64, messageID int) string {
	return strconv.FormatInt(chatID, 10) + ":" + strconv.Itoa(messageID)
}
