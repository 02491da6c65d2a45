package telegram

import (
	"context"
	"strings"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func callbackFrom(userID int64, data string) *tgbotapi.CallbackQuery {
	return &tgbotapi.CallbackQuery{
		ID:   "cb1",
		From: &tgbotapi.User{ID: userID, UserName: "tester", FirstName: "Test"},
		Message: &tgbotapi.Message{
			MessageID: 10,
			Chat:      &tgbotapi.Chat{ID: testOperatorID},
		},
		Data: data,
	}
}

func lastEdit(t *testing.T, fs *fakeSender) tgbotapi.EditMessageTextConfig {
	t.Helper()
	fs.mu.Lock()
	defer fs.mu.Unlock()
	for i := len(fs.sent) - 1; i >= 0; i-- {
		if e, ok := fs.sent[i].(tgbotapi.EditMessageTextConfig); ok {
			return e
		}
	}
	t.Fatalf("no edit was sent: %v", fs.sent)
	return tgbotapi.EditMessageTextConfig{}
}

func TestCallbackRejectsNonOperator(t *testing.T) {
	b, fs := newTestBot(t, scriptedLLM{})

	b.handleCallback(context.Background(), callbackFrom(testUserID, cbToggleAI))

	if !b.aiToggle.Enabled() {
		t.Fatalf("non-operator flipped the AI toggle")
	}
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if len(fs.requests) != 1 {
		t.Fatalf("requests = %d, want 1 alert", len(fs.requests))
	}
	cbCfg, ok := fs.requests[0].(tgbotapi.CallbackConfig)
	if !ok || !cbCfg.ShowAlert {
		t.Fatalf("expected an alert answer, got %+v", fs.requests[0])
	}
	if len(fs.sent) != 0 {
		t.Fatalf("non-operator callback must not edit anything")
	}
}

func TestToggleAICallbackFlipsAndRerenders(t *testing.T) {
	b, fs := newTestBot(t, scriptedLLM{})

	b.handleCallback(context.Background(), callbackFrom(testOperatorID, cbToggleAI))

	if b.aiToggle.Enabled() {
		t.Fatalf("toggle did not flip")
	}
	edit := lastEdit(t, fs)
	if !strings.Contains(edit.Text, "control panel") || !strings.Contains(edit.Text, "disabled") {
		t.Fatalf("panel not re-rendered with the new state: %q", edit.Text)
	}
	if edit.ReplyMarkup == nil {
		t.Fatalf("re-render lost the keyboard")
	}
	if data := *edit.ReplyMarkup.InlineKeyboard[0][0].CallbackData; data != cbToggleAI {
		t.Fatalf("keyboard lost the toggle button: %q", data)
	}
	if !strings.Contains(edit.ReplyMarkup.InlineKeyboard[0][0].Text, "OFF") {
		t.Fatalf("toggle button does not show the new state: %q", edit.ReplyMarkup.InlineKeyboard[0][0].Text)
	}
}

func TestToggleSurvivesReload(t *testing.T) {
	b, _ := newTestBot(t, scriptedLLM{})
	b.handleCallback(context.Background(), callbackFrom(testOperatorID, cbToggleUpload))
	if b.uploadToggle.Enabled() {
		t.Fatalf("toggle did not flip")
	}
	b.handleCallback(context.Background(), callbackFrom(testOperatorID, cbToggleUpload))
	if !b.uploadToggle.Enabled() {
		t.Fatalf("second flip did not restore the toggle")
	}
}

func TestPersonalityCallbackSwitchesPreset(t *testing.T) {
	b, fs := newTestBot(t, scriptedLLM{})

	b.handleCallback(context.Background(), callbackFrom(testOperatorID, cbPersonalityMenu))
	menu := lastEdit(t, fs)
	if menu.ReplyMarkup == nil || len(menu.ReplyMarkup.InlineKeyboard) < 2 {
		t.Fatalf("personality menu missing: %+v", menu)
	}

	b.handleCallback(context.Background(), callbackFrom(testOperatorID, cbPersonalityPfx+"pirate"))
	if got := b.chat.ActivePersonality(testOperatorID); got.Key != "pirate" {
		t.Fatalf("active personality = %q, want pirate", got.Key)
	}
	if !strings.Contains(lastEdit(t, fs).Text, "Personality is now") {
		t.Fatalf("confirmation missing: %q", lastEdit(t, fs).Text)
	}
}

func TestResetCallbackClearsConversation(t *testing.T) {
	b, fs := newTestBot(t, scriptedLLM{reply: "hi"})
	b.handleMessage(context.Background(), textMsg(testOperatorID, testOperatorID, "hello"))
	if b.history.Len(testOperatorID) != 3 {
		t.Fatalf("setup: history length = %d", b.history.Len(testOperatorID))
	}

	b.handleCallback(context.Background(), callbackFrom(testOperatorID, cbResetChat))
	if got := b.history.Len(testOperatorID); got != 1 {
		t.Fatalf("history after reset = %d, want 1", got)
	}
	if !strings.Contains(lastEdit(t, fs).Text, "cleared") {
		t.Fatalf("confirmation missing")
	}
}

func TestProvisionCallbackRecordsAccount(t *testing.T) {
	b, fs := newTestBot(t, scriptedLLM{})

	b.handleCallback(context.Background(), callbackFrom(testOperatorID, cbPanelMenu))
	menu := lastEdit(t, fs)
	if menu.ReplyMarkup == nil {
		t.Fatalf("plan menu missing")
	}
	firstPlan := *menu.ReplyMarkup.InlineKeyboard[0][0].CallbackData
	if !strings.HasPrefix(firstPlan, cbPanelPfx) {
		t.Fatalf("plan button data = %q", firstPlan)
	}

	b.handleCallback(context.Background(), callbackFrom(testOperatorID, firstPlan))
	if b.ledger.Count() != 1 {
		t.Fatalf("ledger count = %d, want 1", b.ledger.Count())
	}
	got := lastEdit(t, fs).Text
	if !strings.Contains(got, "Panel account created") || !strings.Contains(got, "login") {
		t.Fatalf("credentials message = %q", got)
	}
}

func TestBackToMainRestoresPanel(t *testing.T) {
	b, fs := newTestBot(t, scriptedLLM{})

	b.handleCallback(context.Background(), callbackFrom(testOperatorID, cbBotInfo))
	if !strings.Contains(lastEdit(t, fs).Text, "uptime") {
		t.Fatalf("bot info missing: %q", lastEdit(t, fs).Text)
	}

	b.handleCallback(context.Background(), callbackFrom(testOperatorID, cbBackToMain))
	if !strings.Contains(lastEdit(t, fs).Text, "control panel") {
		t.Fatalf("back button did not restore the panel")
	}
}
