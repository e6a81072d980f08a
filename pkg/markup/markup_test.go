package markup

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

func TestParseRenderRoundTrip(t *testing.T) {
	tests := []string{
		``,
		`plain text`,
		`<div><span>A</span></div>`,
		`<ul><li>1</li><li>2</li></ul>`,
		`<button class="my-btn" disabled="">Go</button><!-- note -->`,
		`<p>a &amp; b</p>`,
	}
	for _, src := range tests {
		root, err := Parse(src)
		require.NoError(t, err)
		assert.Equal(t, src, Render(root), "round trip of %q", src)
	}
}

func TestParseContainerIsDetached(t *testing.T) {
	root := MustParse(`<span>x</span>`)
	assert.Nil(t, root.Parent)
	assert.Equal(t, "div", root.Data)
	require.Len(t, Children(root), 1)
	assert.Equal(t, root, root.FirstChild.Parent)
}

func TestParseIntoReplacesChildren(t *testing.T) {
	root := MustParse(`<b>old</b><i>old</i>`)
	require.NoError(t, ParseInto(root, `<em>new</em>`))
	assert.Equal(t, `<em>new</em>`, Render(root))
}

func TestChildAtAndIndexOf(t *testing.T) {
	root := MustParse(`<a></a><b></b><c></c>`)
	b := ChildAt(root, 1)
	require.NotNil(t, b)
	assert.Equal(t, "b", b.Data)
	assert.Equal(t, 1, IndexOf(b))
	assert.Nil(t, ChildAt(root, 3))
	assert.Nil(t, ChildAt(root, -1))
	assert.Equal(t, -1, IndexOf(root))
}

func TestCloneIsDeepAndDetached(t *testing.T) {
	root := MustParse(`<div id="a"><span>t</span></div>`)
	orig := root.FirstChild
	cp := Clone(orig)

	assert.Nil(t, cp.Parent)
	assert.Equal(t, RenderNode(orig), RenderNode(cp))

	SetAttr(cp, "id", "b")
	cp.FirstChild.FirstChild.Data = "changed"
	v, _ := Attr(orig, "id")
	assert.Equal(t, "a", v)
	assert.Equal(t, "t", orig.FirstChild.FirstChild.Data)
}

func TestEquivalent(t *testing.T) {
	tests := []struct {
		a, b string
		want bool
	}{
		{`<p>x</p>`, `<p>x</p>`, true},
		{`<p> x </p>`, `<p>x</p>`, true},
		{`<p a="1" b="2"></p>`, `<p b="2" a="1"></p>`, true},
		{`<p>x</p>`, `<p>y</p>`, false},
		{`<p>x</p>`, `<div>x</div>`, false},
		{`<p a="1"></p>`, `<p a="2"></p>`, false},
		{`<p></p>`, `<p></p><p></p>`, false},
		{`x`, `<p>x</p>`, false},
	}
	for _, tt := range tests {
		got := Equivalent(MustParse(tt.a), MustParse(tt.b))
		assert.Equal(t, tt.want, got, "Equivalent(%q, %q)", tt.a, tt.b)
	}
}

func TestWalkSkipsChildren(t *testing.T) {
	root := MustParse(`<div><span>a</span></div><p>b</p>`)
	var seen []string
	Walk(root, func(n *html.Node) bool {
		if n.Type == html.ElementNode {
			seen = append(seen, n.Data)
		}
		return n.Data != "div"
	})
	assert.Equal(t, []string{"div", "p"}, seen)
}

func TestSetAttr(t *testing.T) {
	n := MustParse(`<a href="/x"></a>`).FirstChild
	SetAttr(n, "href", "/y")
	SetAttr(n, "class", "active")
	assert.Equal(t, `<a href="/y" class="active"></a>`, RenderNode(n))
}

func TestHTMLEscapesArguments(t *testing.T) {
	got := HTML(`<p class="%s">%s</p>%s`, `a"b`, `<script>`, Raw(`<br/>`))
	assert.Equal(t, `<p class="a&#34;b">&lt;script&gt;</p><br/>`, got)
}

func TestMapAndClass(t *testing.T) {
	items := []string{"a", "b"}
	got := HTML(`<ul>%s</ul>`, Map(items, func(s string) string {
		return HTML(`<li class="%s">%s</li>`, Class(s == "b", "active"), s)
	}))
	assert.Equal(t, `<ul><li class="">a</li><li class="active">b</li></ul>`, got)
}
