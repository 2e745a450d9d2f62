package core

import "testing"

func TestAttemptLimiter_Limit(t *testing.T) {
	al := NewAttemptLimiter(2)

	if err := al.Increment(); err != nil {
		t.Fatalf("first attempt should pass: %v", err)
	}
	if err := al.Increment(); err != nil {
		t.Fatalf("second attempt should pass: %v", err)
	}
	if err := al.Increment(); err == nil {
		t.Fatal("third attempt should exceed the limit")
	}
	if al.Count() != 3 {
		t.Fatalf("expected count 3, got %d", al.Count())
	}
}

func TestAttemptLimiter_Unlimited(t *testing.T) {
	al := NewAttemptLimiter(0)

	for i := 0; i < 100; i++ {
		if err := al.Increment(); err != nil {
			t.Fatalf("unlimited limiter should never error: %v", err)
		}
	}
	if al.Remaining() != -1 {
		t.Fatalf("unlimited limiter should report -1 remaining, got %d", al.Remaining())
	}
}
