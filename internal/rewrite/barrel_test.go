package rewrite

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ant-design/antd-tools/internal/source"
)

func TestCSSInjectionCommonJSAndESM(t *testing.T) {
	lib := `"use strict";
require("../../style/index.less");
require("./index.less");

require("../../radio/style");
require("../../checkbox/style/");`
	es := `import '../../style/index.less';
import './index.less';

import '../../radio/style';
export { default } from '../../spin/style';`

	assert.Equal(t, `"use strict";
require("../../style/index.css");
require("./index.css");

require("../../radio/style/css");
require("../../checkbox/style/css");`, CSSInjection(lib))
	assert.Equal(t, `import '../../style/index.css';
import './index.css';

import '../../radio/style/css';
export { default } from '../../spin/style/css';`, CSSInjection(es))
}

func TestCSSInjectionOnlyTouchesSpecifiers(t *testing.T) {
	in := `import './index.less';
const note = "see theme.less and /style for details";`
	want := `import './index.css';
const note = "see theme.less and /style for details";`
	assert.Equal(t, want, CSSInjection(in))
}

func TestCSSInjectionIsIdempotent(t *testing.T) {
	inputs := []string{
		"",
		"import './index.less';",
		"import './index.less'; import '../a/style'; import '../b/style/'; require('x.less');",
		"const a = 1;",
	}
	for _, in := range inputs {
		once := CSSInjection(in)
		assert.Equal(t, once, CSSInjection(once), "input %q", in)
	}
}

func TestCSSBarrelRoundTrip(t *testing.T) {
	f := source.New("/p/components/button/style/index.tsx", "button/style/index.js",
		[]byte(`import './index.less'; import '../other/style';`))

	companion, ok := CSSBarrel(f)
	require.True(t, ok)
	assert.Equal(t, "button/style/css.js", companion.Rel)
	assert.Equal(t, `import './index.css'; import '../other/style/css';`, string(companion.Contents))
	assert.Equal(t, source.KindScript, companion.Kind)
}

func TestCSSBarrelWebVariantPath(t *testing.T) {
	assert.Equal(t, "button/style/css.web.js", CSSPath("button/style/index.web.js"))
	assert.Equal(t, "style/css.js", CSSPath("style/index.js"))
}

func TestHasCompanionProperty(t *testing.T) {
	cases := []struct {
		rel     string
		content string
	}{
		{"button/style/index.js", "import './index.less';"},
		{"button/style/index.js", "import 'react-native'; import './index.less';"},
		{"button/style/index.web.js", "import 'react-native'; import './index.less';"},
		{"button/style/index.web.js", "import './index.less';"},
	}
	for _, tc := range cases {
		f := source.New("", tc.rel, []byte(tc.content))
		out := Barrel(f)
		marked := strings.Contains(tc.content, NonWebMarker)
		want := !(marked && !IsWebVariant(tc.rel))
		assert.Equal(t, want, len(out) == 2, "rel=%s content=%q", tc.rel, tc.content)
		assert.Equal(t, f, out[0], "the original module is always kept")
	}
}

func TestBarrelIgnoresOtherModules(t *testing.T) {
	for _, rel := range []string{"button/index.js", "button/style/index.d.ts", "button/style/css.js", "button/style/index.less"} {
		out := Barrel(source.New("", rel, []byte("import './index.less';")))
		assert.Len(t, out, 1, rel)
	}
}
