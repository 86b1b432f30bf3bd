package wallet

import (
	"context"
	"errors"
	"math/big"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestKeystore(t *testing.T, pass string) (string, common.Address) {
	t.Helper()
	dir := t.TempDir()
	ks := keystore.NewKeyStore(dir, keystore.LightScryptN, keystore.LightScryptP)
	acc, err := ks.NewAccount(pass)
	require.NoError(t, err)
	return dir, acc.Address
}

func TestKeystoreWallet_RequestAccount(t *testing.T) {
	dir, addr := newTestKeystore(t, "secret")

	w, err := NewKeystoreWallet(dir, common.Address{}, StaticPrompter("secret"))
	require.NoError(t, err)
	defer w.Close()

	got, err := w.RequestAccount(context.Background())
	require.NoError(t, err)
	assert.Equal(t, addr, got)

	opts, err := w.Transactor(context.Background(), big.NewInt(11155111))
	require.NoError(t, err)
	assert.Equal(t, addr, opts.From)
	assert.NotNil(t, opts.Signer)
}

func TestKeystoreWallet_WrongPassphraseIsDeclined(t *testing.T) {
	dir, _ := newTestKeystore(t, "secret")

	w, err := NewKeystoreWallet(dir, common.Address{}, StaticPrompter("wrong"))
	require.NoError(t, err)
	defer w.Close()

	_, err = w.RequestAccount(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDeclined), "got %v", err)
}

func TestKeystoreWallet_PrompterDeclines(t *testing.T) {
	dir, _ := newTestKeystore(t, "secret")

	decline := PrompterFunc(func(context.Context, common.Address) (string, error) {
		return "", ErrDeclined
	})
	w, err := NewKeystoreWallet(dir, common.Address{}, decline)
	require.NoError(t, err)
	defer w.Close()

	_, err = w.RequestAccount(context.Background())
	assert.ErrorIs(t, err, ErrDeclined)
}

func TestKeystoreWallet_TransactorBeforeAuthorization(t *testing.T) {
	dir, _ := newTestKeystore(t, "secret")

	w, err := NewKeystoreWallet(dir, common.Address{}, StaticPrompter("secret"))
	require.NoError(t, err)
	defer w.Close()

	_, err = w.Transactor(context.Background(), big.NewInt(1))
	assert.ErrorIs(t, err, ErrNotAuthorized)
}

func TestKeystoreWallet_Unavailable(t *testing.T) {
	tests := []struct {
		name string
		dir  func(t *testing.T) string
	}{
		{"empty path", func(*testing.T) string { return "" }},
		{"missing dir", func(t *testing.T) string { return filepath.Join(t.TempDir(), "nope") }},
		{"regular file", func(t *testing.T) string {
			p := filepath.Join(t.TempDir(), "file")
			require.NoError(t, os.WriteFile(p, []byte("x"), 0o600))
			return p
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewKeystoreWallet(tt.dir(t), common.Address{}, nil)
			assert.ErrorIs(t, err, ErrNoWallet)
		})
	}
}

func TestKeystoreWallet_EmptyKeystore(t *testing.T) {
	w, err := NewKeystoreWallet(t.TempDir(), common.Address{}, StaticPrompter("x"))
	require.NoError(t, err)
	defer w.Close()

	_, err = w.RequestAccount(context.Background())
	assert.ErrorIs(t, err, ErrNoWallet)
}

func TestKeystoreWallet_PreferredAccountMissing(t *testing.T) {
	dir, _ := newTestKeystore(t, "secret")
	other := common.HexToAddress("0x00000000000000000000000000000000000000aa")

	w, err := NewKeystoreWallet(dir, other, StaticPrompter("secret"))
	require.NoError(t, err)
	defer w.Close()

	_, err = w.RequestAccount(context.Background())
	assert.ErrorIs(t, err, ErrNoWallet)
}

func TestKeyWallet(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	hexKey := common.Bytes2Hex(crypto.FromECDSA(key))
	want := crypto.PubkeyToAddress(key.PublicKey)

	for _, in := range []string{hexKey, "0x" + hexKey, "  " + hexKey + "\n"} {
		w, err := NewKeyWallet(in)
		require.NoError(t, err)

		got, err := w.RequestAccount(context.Background())
		require.NoError(t, err)
		assert.Equal(t, want, got)

		opts, err := w.Transactor(context.Background(), big.NewInt(1337))
		require.NoError(t, err)
		assert.Equal(t, want, opts.From)
	}
}

func TestKeyWallet_Invalid(t *testing.T) {
	_, err := NewKeyWallet("")
	assert.ErrorIs(t, err, ErrNoWallet)

	_, err = NewKeyWallet("0xnothex")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrNoWallet))
}

func TestKeyWallet_SwitchKeyEmitsAccountsChanged(t *testing.T) {
	k1, _ := crypto.GenerateKey()
	k2, _ := crypto.GenerateKey()
	w := NewKeyWalletFromKey(k1)

	ch := make(chan Event, 1)
	sub := w.Subscribe(ch)
	defer sub.Unsubscribe()

	w.SwitchKey(k2)

	select {
	case ev := <-ch:
		assert.Equal(t, AccountsChanged, ev.Kind)
		assert.Equal(t, []common.Address{crypto.PubkeyToAddress(k2.PublicKey)}, ev.Accounts)
	case <-time.After(time.Second):
		t.Fatal("no event delivered")
	}
	assert.Equal(t, crypto.PubkeyToAddress(k2.PublicKey), w.Address())
}

type stubChainID struct{ id int64 }

func (s *stubChainID) ChainID(context.Context) (*big.Int, error) { return big.NewInt(s.id), nil }

func TestChainWatcher_Check(t *testing.T) {
	src := &stubChainID{id: 1}
	w := NewChainWatcher(src, time.Hour)

	ch := make(chan Event, 4)
	sub := w.Subscribe(ch)
	defer sub.Unsubscribe()

	changed, err := w.Check(context.Background())
	require.NoError(t, err)
	assert.False(t, changed, "first observation only records")

	changed, _ = w.Check(context.Background())
	assert.False(t, changed)

	src.id = 11155111
	changed, err = w.Check(context.Background())
	require.NoError(t, err)
	assert.True(t, changed)

	ev := <-ch
	assert.Equal(t, ChainChanged, ev.Kind)
	assert.Equal(t, int64(11155111), ev.ChainID.Int64())
	assert.Empty(t, ch)
}

func TestConfirmPrompt(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"y\n", true},
		{"YES\n", true},
		{"n\n", false},
		{"\n", false},
		{"", false},
		{"maybe\n", false},
	}

	for _, tt := range tests {
		var out strings.Builder
		got, err := ConfirmPrompt(strings.NewReader(tt.input), &out, "Proceed?")
		require.NoError(t, err, "input %q", tt.input)
		assert.Equal(t, tt.want, got, "input %q", tt.input)
		assert.Contains(t, out.String(), "Proceed? [y/N]")
	}
}

func TestEventKind_String(t *testing.T) {
	assert.Equal(t, "AccountsChanged", AccountsChanged.String())
	assert.Equal(t, "ChainChanged", ChainChanged.String())
	assert.Equal(t, "Unknown", EventKind(99).String())
}
