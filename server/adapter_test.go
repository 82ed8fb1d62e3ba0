package server

import (
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdbbridge/config"
	"pdbbridge/internal/errors"
	"pdbbridge/internal/metrics"
	"pdbbridge/internal/session"
	"pdbbridge/internal/wire"
	"pdbbridge/util"
)

// tcpPair returns both ends of a loopback TCP connection.
func tcpPair(t *testing.T) (client, server net.Conn) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	accepted := make(chan net.Conn, 1)
	go func() {
		c, err := ln.Accept()
		if err != nil {
			accepted <- nil
			return
		}
		accepted <- c
	}()

	client, err = net.Dial("tcp", ln.Addr().String())
	require.NoError(t, err)
	server = <-accepted
	require.NotNil(t, server)
	t.Cleanup(func() {
		client.Close()
		server.Close()
	})
	return client, server
}

func newTestAdapter(t *testing.T, cfg *config.Config) (*Adapter, net.Conn, *metrics.Collector) {
	t.Helper()
	c, s := tcpPair(t)
	m := metrics.New()
	sess := session.New(s, cfg.Codec(), util.NewLogger(0))
	return NewAdapter(sess, cfg, util.NewLogger(0), m), c, m
}

// expectBytes reads exactly len(want) bytes from c and compares.
func expectBytes(t *testing.T, c net.Conn, want string) {
	t.Helper()
	require.NoError(t, c.SetReadDeadline(time.Now().Add(2*time.Second)))
	buf := make([]byte, len(want))
	_, err := io.ReadFull(c, buf)
	require.NoError(t, err)
	assert.Equal(t, want, string(buf))
}

func expectNothing(t *testing.T, c net.Conn) {
	t.Helper()
	require.NoError(t, c.SetReadDeadline(time.Now().Add(50*time.Millisecond)))
	buf := make([]byte, 64)
	n, err := c.Read(buf)
	assert.Zero(t, n, "unexpected output %q", buf[:n])
	assert.True(t, errors.IsTimeout(err))
}

func TestAdapter_FlushesOnPrompt(t *testing.T) {
	a, c, m := newTestAdapter(t, config.Default())

	require.NoError(t, a.Write("> foo.py(3)bar()\n"))
	require.NoError(t, a.Write("-> return x\n"))
	expectNothing(t, c)
	assert.Equal(t, "> foo.py(3)bar()\n-> return x\n", a.Pending())

	require.NoError(t, a.Write("(Pdb) "))
	want := "\x1b[96m> foo.py(3)bar()\x1b[0m\r\n" +
		"\x1b[93m-> return x\x1b[0m\r\n" +
		"\x1b[94m(Pdb)\x1b[0m "
	expectBytes(t, c, want)
	assert.Empty(t, a.Pending())
	assert.Equal(t, int64(len(want)), m.TotalBytesOut())
}

func TestAdapter_FramingIdempotence(t *testing.T) {
	text := "line one\nline two\r\n*** NameError: x\n>> raise\n(Pdb) "
	want := "line one\r\nline two\r\n*** NameError: x\r\n>> raise\r\n(Pdb) "

	a, c, _ := newTestAdapter(t, config.Default())
	for i := 0; i < len(text)-len("(Pdb) "); i++ {
		require.NoError(t, a.Write(text[:i]))
		require.NoError(t, a.Write(text[i:]))

		buf := make([]byte, 0, 256)
		require.NoError(t, c.SetReadDeadline(time.Now().Add(2*time.Second)))
		for wire.Strip(string(buf)) != want {
			chunk := make([]byte, 256)
			n, err := c.Read(chunk)
			require.NoError(t, err, "split at %d, got %q", i, buf)
			buf = append(buf, chunk[:n]...)
		}
		assert.Empty(t, a.Pending())
	}
}

func TestAdapter_PromptSplitAcrossFragments(t *testing.T) {
	cfg := config.Default()
	cfg.UseColor = false
	a, c, _ := newTestAdapter(t, cfg)

	require.NoError(t, a.Write("done\n(Pd"))
	expectNothing(t, c)
	require.NoError(t, a.Write("b) "))
	expectBytes(t, c, "done\r\n(Pdb) ")
}

func TestAdapter_OutputAfterPromptStaysPending(t *testing.T) {
	cfg := config.Default()
	cfg.UseColor = false
	a, c, _ := newTestAdapter(t, cfg)

	require.NoError(t, a.Write("a\n(Pdb) > foo.py(4)bar()\n"))
	expectBytes(t, c, "a\r\n(Pdb) ")
	assert.Equal(t, "> foo.py(4)bar()\n", a.Pending())

	require.NoError(t, a.Write("-> y\n(Pdb) "))
	expectBytes(t, c, "> foo.py(4)bar()\r\n-> y\r\n(Pdb) ")
	assert.Empty(t, a.Pending())
}

func TestAdapter_PaddingInNextFragment(t *testing.T) {
	cfg := config.Default()
	cfg.UseColor = false
	a, c, _ := newTestAdapter(t, cfg)

	require.NoError(t, a.Write("a\n(Pdb)"))
	expectBytes(t, c, "a\r\n(Pdb) ")
	require.NoError(t, a.Write(" b\n"))
	assert.Equal(t, "b\n", a.Pending(), "the marker's padding is not output")
}

func TestAdapter_Classification(t *testing.T) {
	a, c, _ := newTestAdapter(t, config.Default())

	require.NoError(t, a.Write("> app.py(9)<module>() *** oops\nplain\n(Pdb) "))
	expectBytes(t, c, "\x1b[91m> app.py(9)<module>() *** oops\x1b[0m\r\nplain\r\n\x1b[94m(Pdb)\x1b[0m ")
}

func TestAdapter_LFDelimiter(t *testing.T) {
	cfg := config.Default()
	cfg.EOL = "lf"
	cfg.UseColor = false
	a, c, _ := newTestAdapter(t, cfg)

	require.NoError(t, a.Write("a\r\nb\n(Pdb) "))
	expectBytes(t, c, "a\nb\n(Pdb) ")
}

func TestAdapter_Notify(t *testing.T) {
	a, c, _ := newTestAdapter(t, config.Default())

	require.NoError(t, a.Notify("breakpoint %d set", 1))
	expectBytes(t, c, "! breakpoint 1 set\r\n\x1b[94m(Pdb)\x1b[0m ")

	require.NoError(t, a.Announce("bye"))
	expectBytes(t, c, "! bye\r\n")
}

func TestAdapter_Flush(t *testing.T) {
	cfg := config.Default()
	cfg.UseColor = false
	a, c, _ := newTestAdapter(t, cfg)

	require.NoError(t, a.Flush(), "nothing pending is a no-op")
	require.NoError(t, a.Write("The program finished\n"))
	require.NoError(t, a.Flush())
	expectBytes(t, c, "The program finished\r\n")
	assert.Empty(t, a.Pending())
}

func TestAdapter_ReadLine(t *testing.T) {
	a, c, m := newTestAdapter(t, config.Default())

	_, err := c.Write([]byte("c\r\nnext\r\n"))
	require.NoError(t, err)

	assert.Equal(t, "c\r\n", a.ReadLine())
	assert.Equal(t, "c", a.LastCommand())
	assert.Equal(t, "next\r\n", a.ReadLine())
	assert.Equal(t, "next", a.LastCommand())
	assert.Equal(t, int64(len("c\r\nnext\r\n")), m.TotalBytesIn())
	assert.NoError(t, a.Err())
}

func TestAdapter_ReadLineAfterDisconnect(t *testing.T) {
	a, c, _ := newTestAdapter(t, config.Default())
	_, err := c.Write([]byte("partial"))
	require.NoError(t, err)
	c.Close()

	assert.Equal(t, "", a.ReadLine(), "a fragment before EOF is not a command")
	assert.True(t, errors.Is(a.Err(), errors.ErrConnectionLost))
}

func TestAdapter_WriteAfterClose(t *testing.T) {
	a, _, _ := newTestAdapter(t, config.Default())
	a.sess.Close()

	err := a.Write("(Pdb) ")
	require.Error(t, err)
	assert.True(t, errors.IsDisconnect(err))
	assert.Equal(t, err, a.Write("more"), "the first failure is sticky")
}
