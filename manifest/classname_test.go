package manifest

import "testing"

func TestCheckClassName(t *testing.T) {
	tests := []struct {
		name string
		ok   bool
	}{
		{"java.lang.String", true},
		{"java/lang/String", true},
		{"demo.Outer$Inner", true},
		{"_private.Thing2", true},
		{"Unpackaged", true},
		{"", false},
		{"int", false},
		{"void", false},
		{"int[]", false},
		{"[Ljava.lang.String;", false},
		{"java..lang", false},
		{".java.lang", false},
		{"java.lang.", false},
		{"java.2lang", false},
		{"java.lang-ext.Foo", false},
	}

	for _, tc := range tests {
		err := CheckClassName(tc.name)
		if (err == nil) != tc.ok {
			t.Errorf("CheckClassName(%q) = %v, want ok=%v", tc.name, err, tc.ok)
		}
	}
}
