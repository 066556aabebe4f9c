package main

import (
	"errors"
	"sync"
	"testing"
)

// firstOfKind returns the first item of kind k on b.
func firstOfKind(t *testing.T, b *Board, k Kind) GridItem {
	t.Helper()
	for _, it := range b.Items {
		if it.Kind == k {
			return it
		}
	}
	t.Fatalf("board has no %s item", k)
	return GridItem{}
}

func TestInstallCancelsPreviousBatch(t *testing.T) {
	sess := NewStore().CreateSession(ThemeSanrio, true)

	first := sess.Install(t.Context(), NewBoard(testPairs("天"), ThemeSanrio, 4, nil))
	second := sess.Install(t.Context(), NewBoard(testPairs("地"), ThemeSanrio, 4, nil))

	if first.Err() == nil {
		t.Fatal("first batch context should be cancelled")
	}
	if second.Err() != nil {
		t.Fatal("live batch context should still be running")
	}

	sess.Close()
	if second.Err() == nil {
		t.Fatal("Close should cancel the live batch")
	}
}

func TestAttachImage(t *testing.T) {
	sess := NewStore().CreateSession(ThemeSanrio, true)
	board := NewBoard(testPairs("天"), ThemeSanrio, 4, nil)
	sess.Install(t.Context(), board.clone())

	surprise := firstOfKind(t, board, KindSurprise)
	text := firstOfKind(t, board, KindText)

	if !sess.AttachImage(board.ID, surprise.ID, "data:image/png;base64,AAAA") {
		t.Fatal("attach to live batch should succeed")
	}
	if sess.AttachImage(board.ID, text.ID, "data:image/png;base64,AAAA") {
		t.Fatal("text cards take no image")
	}
	if sess.AttachImage(board.ID, "surprise-unknown", "x") {
		t.Fatal("unknown item should be rejected")
	}

	got := sess.Board().item(surprise.ID)
	if got.ImageURL != "data:image/png;base64,AAAA" {
		t.Fatalf("image not attached: %q", got.ImageURL)
	}
}

func TestAttachImageStaleBatch(t *testing.T) {
	sess := NewStore().CreateSession(ThemeSanrio, true)
	old := NewBoard(nil, ThemeSanrio, 4, nil)
	sess.Install(t.Context(), old.clone())
	live := NewBoard(nil, ThemeSanrio, 4, nil)
	sess.Install(t.Context(), live.clone())

	if sess.AttachImage(old.ID, old.Items[0].ID, "late") {
		t.Fatal("late image for a replaced batch must be dropped")
	}
	for _, it := range sess.Board().Items {
		if it.ImageURL != "" {
			t.Fatalf("live board was modified by a stale result: %s", it.ID)
		}
	}
}

func TestRevealLifecycle(t *testing.T) {
	sess := NewStore().CreateSession(DefaultTheme, true)
	board := NewBoard(testPairs("天"), DefaultTheme, 4, nil)
	sess.Install(t.Context(), board.clone())
	item := firstOfKind(t, board, KindText)

	outcome, batchID, err := sess.BeginReveal(item.ID, ModeInteractive)
	if err != nil || outcome != RevealStarted || batchID != board.ID {
		t.Fatalf("begin: got %s %s %v", outcome, batchID, err)
	}
	if got := sess.Board().item(item.ID); got.State != StateAnimating || got.Revealed {
		t.Fatalf("expected animating, got %s revealed=%v", got.State, got.Revealed)
	}

	// A second click while animating is ignored.
	if outcome, _, _ := sess.BeginReveal(item.ID, ModeInteractive); outcome != RevealIgnored {
		t.Fatalf("double reveal: got %s", outcome)
	}

	if !sess.FinishReveal(batchID, item.ID) {
		t.Fatal("finish should commit")
	}
	got := sess.Board().item(item.ID)
	if got.State != StateRevealed || !got.Revealed {
		t.Fatalf("expected revealed, got %s revealed=%v", got.State, got.Revealed)
	}
	if sess.FinishReveal(batchID, item.ID) {
		t.Fatal("second finish should be a no-op")
	}
	if outcome, _, _ := sess.BeginReveal(item.ID, ModeInteractive); outcome != RevealIgnored {
		t.Fatalf("revealed cards stay revealed, got %s", outcome)
	}
}

func TestRevealPrintModeIsInert(t *testing.T) {
	sess := NewStore().CreateSession(DefaultTheme, true)
	board := NewBoard(nil, DefaultTheme, 2, nil)
	sess.Install(t.Context(), board.clone())

	outcome, _, err := sess.BeginReveal(board.Items[0].ID, ModePrintCover)
	if err != nil || outcome != RevealWrongMode {
		t.Fatalf("got %s %v", outcome, err)
	}
	if got := sess.Board().Items[0]; got.State != StateHidden {
		t.Fatalf("state changed to %s", got.State)
	}
}

func TestRevealErrors(t *testing.T) {
	sess := NewStore().CreateSession(DefaultTheme, true)

	if _, _, err := sess.BeginReveal("text-x", ModeInteractive); !errors.Is(err, ErrNoBoard) {
		t.Fatalf("expected ErrNoBoard, got %v", err)
	}

	sess.Install(t.Context(), NewBoard(nil, DefaultTheme, 2, nil))
	if _, _, err := sess.BeginReveal("text-x", ModeInteractive); !errors.Is(err, ErrItemNotFound) {
		t.Fatalf("expected ErrItemNotFound, got %v", err)
	}
}

func TestFinishRevealAfterReplace(t *testing.T) {
	sess := NewStore().CreateSession(DefaultTheme, true)
	old := NewBoard(nil, DefaultTheme, 2, nil)
	sess.Install(t.Context(), old.clone())

	_, batchID, _ := sess.BeginReveal(old.Items[0].ID, ModeInteractive)
	sess.Install(t.Context(), NewBoard(nil, DefaultTheme, 2, nil))

	if sess.FinishReveal(batchID, old.Items[0].ID) {
		t.Fatal("a pending reveal must not touch the replacement board")
	}
}

func TestBoardCopyIsolation(t *testing.T) {
	sess := NewStore().CreateSession(DefaultTheme, true)
	sess.Install(t.Context(), NewBoard(nil, DefaultTheme, 2, nil))

	b := sess.Board()
	b.Items[0].State = StateRevealed

	if sess.Board().Items[0].State != StateHidden {
		t.Fatal("Board should return a copy, not a reference")
	}
	if sess.View().Board.Items[0].State != StateHidden {
		t.Fatal("View should return a copy, not a reference")
	}
}

func TestSessionConcurrentAccess(t *testing.T) {
	sess := NewStore().CreateSession(ThemeSanrio, true)
	board := NewBoard(testPairs("天地人"), ThemeSanrio, 12, nil)
	sess.Install(t.Context(), board.clone())

	var wg sync.WaitGroup
	for i, it := range board.Items {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sess.AttachImage(board.ID, it.ID, "img")
			sess.BeginReveal(it.ID, ModeInteractive)
			sess.FinishReveal(board.ID, it.ID)
			sess.View()
			if i%4 == 0 {
				sess.SetShowPinyin(i%8 == 0)
			}
		}()
	}
	wg.Wait()

	for _, it := range sess.Board().Items {
		if it.State != StateRevealed {
			t.Fatalf("item %s: got %s", it.ID, it.State)
		}
	}
}
