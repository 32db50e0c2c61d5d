package auth

import (
	"context"
	"testing"

	"github.com/inkwell/inkwell/internal/model"
)

func TestCallerFromContext(t *testing.T) {
	t.Parallel()

	if c := CallerFromContext(context.Background()); c.IsAuthenticated() {
		t.Errorf("empty context should yield anonymous caller, got %+v", c)
	}

	ctx := ContextWithCaller(context.Background(), model.Authenticated("u1"))
	if c := CallerFromContext(ctx); !c.Is("u1") {
		t.Errorf("CallerFromContext = %+v, want u1", c)
	}
}
