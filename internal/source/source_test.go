package source

import "testing"

func TestClassify(t *testing.T) {
	cases := map[string]Kind{
		"button/index.tsx":        KindScript,
		"button/style/index.ts":   KindScript,
		"locale/en_US.js":         KindScript,
		"global.d.ts":             KindTypeDefinition,
		"button/style/index.less": KindStylesheet,
		"style/core/base.css":     KindStylesheet,
		"icon/assets/logo.svg":    KindAsset,
		"icon/assets/logo.png":    KindAsset,
	}
	for name, want := range cases {
		if got := Classify(name); got != want {
			t.Errorf("Classify(%q) = %s, want %s", name, got, want)
		}
	}
}

func TestReplaceExt(t *testing.T) {
	if got := ReplaceExt("button/index.tsx", ".js"); got != "button/index.js" {
		t.Fatalf("got %q", got)
	}
	if got := ReplaceExt("typings/custom.d.ts", ".d.ts"); got != "typings/custom.d.ts" {
		t.Fatalf("got %q", got)
	}
}

func TestSetAdd(t *testing.T) {
	var s Set
	for _, rel := range []string{"a.tsx", "a.less", "a.d.ts", "a.svg", "b.ts"} {
		s.Add(New("/src/"+rel, rel, nil))
	}
	if len(s.Scripts) != 2 || len(s.Stylesheets) != 1 || len(s.Declarations) != 1 || len(s.Assets) != 1 {
		t.Fatalf("unexpected partition %+v", s)
	}
	if s.Len() != 5 {
		t.Fatalf("Len() = %d", s.Len())
	}
}
