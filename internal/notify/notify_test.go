package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/multierr"

	"github.com/DoyleJ11/lol-inhouse-backend/pkg/types"
)

func TestMultiPublishesToAll(t *testing.T) {
	var got []string
	record := func(name string, err error) Broadcaster {
		return Func(func(_ context.Context, evt types.Event) error {
			got = append(got, name+":"+string(evt.Type))
			return err
		})
	}
	errA := errors.New("a down")
	errC := errors.New("c down")
	m := Multi{record("a", errA), record("b", nil), Nop{}, record("c", errC)}

	err := m.Publish(context.Background(), types.Event{Type: types.EventMatchFound})
	assert.Equal(t, []string{"a:match_found", "b:match_found", "c:match_found"}, got)
	assert.ErrorIs(t, err, errA)
	assert.ErrorIs(t, err, errC)
	assert.Len(t, multierr.Errors(err), 2)
}
