package domain

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestProductStatus_Valid(t *testing.T) {
	for _, s := range []ProductStatus{StatusWaiting, StatusReserved, StatusCompleted} {
		if !s.Valid() {
			t.Errorf("%q should be valid", s)
		}
	}
	for _, s := range []ProductStatus{"", "SOLD", "waiting", "DONE"} {
		if s.Valid() {
			t.Errorf("%q should be invalid", s)
		}
	}
}

func TestTableNames(t *testing.T) {
	cases := map[string]string{
		User{}.TableName():             "users",
		Category{}.TableName():         "categories",
		Product{}.TableName():          "products",
		Image{}.TableName():            "images",
		ChatRoom{}.TableName():         "chat_rooms",
		ChatMessage{}.TableName():      "chat_messages",
		UnivVerification{}.TableName(): "univ_verifications",
	}
	for got, want := range cases {
		if got != want {
			t.Errorf("table name = %q; want %q", got, want)
		}
	}
}

func TestVerificationCode_NotSerialized(t *testing.T) {
	v := UnivVerification{
		ID:        1,
		Email:     "a@snu.ac.kr",
		Code:      "123456",
		UserID:    7,
		ExpiresAt: time.Now().Add(24 * time.Hour),
	}
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if strings.Contains(string(b), "123456") {
		t.Fatalf("verification code leaked into JSON: %s", b)
	}
}

func TestProduct_BuyerOmittedWhenNil(t *testing.T) {
	p := Product{ID: 1, Title: "bike", Status: StatusWaiting}
	b, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if strings.Contains(string(b), "buyer_id") {
		t.Fatalf("nil buyer should be omitted: %s", b)
	}
}
