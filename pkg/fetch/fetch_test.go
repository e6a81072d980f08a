package fetch

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plain-reactive/plain/internal/errors"
)

func TestHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/ok.css" {
			io.WriteString(w, "p { color: red }")
			return
		}
		http.NotFound(w, r)
	}))
	defer srv.Close()

	text, err := HTTP{}.FetchText(context.Background(), srv.URL+"/ok.css")
	require.NoError(t, err)
	assert.Equal(t, "p { color: red }", text)

	_, err = HTTP{}.FetchText(context.Background(), srv.URL+"/missing.css")
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.CodeFetchFailed))
	assert.Contains(t, err.Error(), "404")
}

func TestHTTPRejectsOversizedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := maxBody
		if r.URL.Path == "/big.css" {
			n++
		}
		io.WriteString(w, strings.Repeat("a", n))
	}))
	defer srv.Close()

	text, err := HTTP{}.FetchText(context.Background(), srv.URL+"/fits.css")
	require.NoError(t, err)
	assert.Len(t, text, maxBody)

	text, err = HTTP{}.FetchText(context.Background(), srv.URL+"/big.css")
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.CodeFetchFailed))
	assert.Empty(t, text)
}

func TestFile(t *testing.T) {
	fsys := fstest.MapFS{
		"styles/card.css": {Data: []byte(".card{}")},
	}
	f := File{FS: fsys}
	for _, u := range []string{"styles/card.css", "/styles/card.css", "file:///styles/card.css", "styles/../styles/card.css"} {
		text, err := f.FetchText(context.Background(), u)
		require.NoError(t, err, u)
		assert.Equal(t, ".card{}", text, u)
	}
	_, err := f.FetchText(context.Background(), "styles/none.css")
	assert.True(t, errors.HasCode(err, errors.CodeFetchFailed))
}

type fakeS3 struct {
	objects map[string]string
	calls   []string
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	key := *in.Bucket + "/" + *in.Key
	f.calls = append(f.calls, key)
	body, ok := f.objects[key]
	if !ok {
		return nil, io.ErrUnexpectedEOF
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader(body))}, nil
}

func TestS3(t *testing.T) {
	client := &fakeS3{objects: map[string]string{"assets/docs/intro.md": "# Hi"}}
	f := S3{Client: client}

	text, err := f.FetchText(context.Background(), "s3://assets/docs/intro.md")
	require.NoError(t, err)
	assert.Equal(t, "# Hi", text)
	assert.Equal(t, []string{"assets/docs/intro.md"}, client.calls)

	_, err = f.FetchText(context.Background(), "s3://assets/")
	assert.Error(t, err)
	_, err = f.FetchText(context.Background(), "s3://assets/none.md")
	assert.True(t, errors.HasCode(err, errors.CodeFetchFailed))
}

func TestMux(t *testing.T) {
	m := NewMux()
	m.Handle("mem", Func(func(_ context.Context, u string) (string, error) {
		return "mem:" + u, nil
	}))
	m.Handle("", Func(func(_ context.Context, u string) (string, error) {
		return "plain:" + u, nil
	}))

	got, err := m.FetchText(context.Background(), "MEM://x")
	require.NoError(t, err)
	assert.Equal(t, "mem:MEM://x", got)

	got, err = m.FetchText(context.Background(), "a/b.css")
	require.NoError(t, err)
	assert.Equal(t, "plain:a/b.css", got)

	_, err = m.FetchText(context.Background(), "ftp://x")
	assert.True(t, errors.HasCode(err, errors.CodeFetchFailed))
}

func TestTextOrLogsAndFallsBack(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	m := Default(fstest.MapFS{"a.txt": {Data: []byte("A")}})

	assert.Equal(t, "A", TextOr(context.Background(), m, "a.txt", "fallback", logger))
	assert.Empty(t, buf.String())

	assert.Equal(t, "fallback", TextOr(context.Background(), m, "b.txt", "fallback", logger))
	assert.Contains(t, buf.String(), "fetch: failed")
	assert.Contains(t, buf.String(), "url=b.txt")
}
