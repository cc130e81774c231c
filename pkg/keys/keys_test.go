package keys

import (
	"errors"
	"testing"
)

type recorder struct {
	calls []string
	err   error
}

func (r *recorder) Next() error       { r.calls = append(r.calls, "next"); return r.err }
func (r *recorder) ToggleCall() error { r.calls = append(r.calls, "call"); return r.err }
func (r *recorder) Save() error       { r.calls = append(r.calls, "save"); return r.err }

func TestDispatch(t *testing.T) {
	active := Focus{LoggedIn: true}
	tests := []struct {
		key     string
		focus   Focus
		want    Command
		handled bool
		calls   []string
	}{
		{key: "n", focus: active, want: Next, handled: true, calls: []string{"next"}},
		{key: "N", focus: active, want: Next, handled: true, calls: []string{"next"}},
		{key: "c", focus: active, want: Call, handled: true, calls: []string{"call"}},
		{key: "C", focus: active, want: Call, handled: true, calls: []string{"call"}},
		{key: "s", focus: active, want: Save, handled: true, calls: []string{"save"}},
		{key: "S", focus: active, want: Save, handled: true, calls: []string{"save"}},
		{key: "shift+n", focus: active, want: Next, handled: true, calls: []string{"next"}},
		{key: "shift+c", focus: active, want: Call, handled: true, calls: []string{"call"}},
		{key: "shift+s", focus: active, want: Save, handled: true, calls: []string{"save"}},
		{key: "shift+x", focus: active, want: None},
		{key: "shift+c", focus: Focus{LoggedIn: true, InputFocused: true}, want: None},
		{key: "x", focus: active, want: None},
		{key: "ctrl+n", focus: active, want: None},
		{key: "", focus: active, want: None},
		{key: "n", focus: Focus{}, want: None},
		{key: "c", focus: Focus{LoggedIn: true, InputFocused: true}, want: None},
		{key: "S", focus: Focus{InputFocused: true}, want: None},
	}
	for _, tt := range tests {
		r := &recorder{}
		d := NewDispatcher(r)
		got, handled, err := d.Dispatch(tt.key, tt.focus)
		if err != nil {
			t.Fatalf("%q: unexpected error %v", tt.key, err)
		}
		if got != tt.want || handled != tt.handled {
			t.Fatalf("%q %+v: got (%s, %v), want (%s, %v)", tt.key, tt.focus, got, handled, tt.want, tt.handled)
		}
		if len(r.calls) != len(tt.calls) {
			t.Fatalf("%q: calls = %v, want %v", tt.key, r.calls, tt.calls)
		}
		for i := range tt.calls {
			if r.calls[i] != tt.calls[i] {
				t.Fatalf("%q: calls = %v, want %v", tt.key, r.calls, tt.calls)
			}
		}
	}
}

func TestDispatchReturnsTargetError(t *testing.T) {
	boom := errors.New("boom")
	d := NewDispatcher(&recorder{err: boom})
	cmd, handled, err := d.Dispatch("c", Focus{LoggedIn: true})
	if !handled || cmd != Call {
		t.Fatalf("got (%s, %v)", cmd, handled)
	}
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
}

func TestBindingsCoverCommands(t *testing.T) {
	for _, b := range Bindings {
		if Parse(b.Key) != b.Command {
			t.Fatalf("binding %q parses to %s, want %s", b.Key, Parse(b.Key), b.Command)
		}
	}
}
