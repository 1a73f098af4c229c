package vault

import (
	"testing"

	"github.com/iov-one/vault/errors"
)

type pingMsg struct {
	valid bool
}

func (pingMsg) Path() string { return "test/ping" }

func (m pingMsg) Validate() error {
	if !m.valid {
		return errors.Wrap(errors.ErrMsg, "not valid")
	}
	return nil
}

type txMock struct {
	msg Msg
	err error
}

func (tx txMock) GetMsg() (Msg, error) { return tx.msg, tx.err }

func TestLoadMsg(t *testing.T) {
	var ping pingMsg
	if err := LoadMsg(txMock{msg: pingMsg{valid: true}}, &ping); err != nil {
		t.Fatalf("cannot load: %s", err)
	}
	if !ping.valid {
		t.Fatal("message not assigned")
	}

	ping = pingMsg{}
	if err := LoadMsg(txMock{msg: &pingMsg{valid: true}}, &ping); err != nil || !ping.valid {
		t.Fatalf("cannot load pointer message: %v", err)
	}

	if err := LoadMsg(txMock{msg: pingMsg{}}, &ping); !errors.ErrMsg.Is(err) {
		t.Fatalf("want invalid message error, got %v", err)
	}
	if err := LoadMsg(txMock{msg: pingMsg{valid: true}}, ping); !errors.ErrType.Is(err) {
		t.Fatalf("want type error for non pointer, got %v", err)
	}
	var other *int
	if err := LoadMsg(txMock{msg: pingMsg{valid: true}}, &other); !errors.ErrType.Is(err) {
		t.Fatalf("want type error for wrong destination, got %v", err)
	}
	if err := LoadMsg(txMock{}, &ping); !errors.ErrMsg.Is(err) {
		t.Fatalf("want missing message error, got %v", err)
	}
	if got := GetPath(txMock{msg: pingMsg{}}); got != "test/ping" {
		t.Fatalf("unexpected path %q", got)
	}
}
