package frontmatter

import "testing"

func TestSplit(testingHandle *testing.T) {
	testingHandle.Parallel()

	testCases := []struct {
		name           string
		document       string
		expectedMatter string
		expectedBody   string
	}{
		{
			name:           "terminated_block",
			document:       "---\na: b\n---\nbody\n",
			expectedMatter: "---\na: b\n---\n",
			expectedBody:   "body\n",
		},
		{
			name:           "dots_terminate_block",
			document:       "---\na: b\n...\nbody",
			expectedMatter: "---\na: b\n...\n",
			expectedBody:   "body",
		},
		{
			name:           "block_at_end_of_document",
			document:       "---\na: b\n---",
			expectedMatter: "---\na: b\n---",
			expectedBody:   "",
		},
		{
			name:           "unterminated_block",
			document:       "---\na: b\n",
			expectedMatter: "",
			expectedBody:   "---\na: b\n",
		},
		{
			name:           "no_block",
			document:       "text\n---\n",
			expectedMatter: "",
			expectedBody:   "text\n---\n",
		},
	}

	for _, testCase := range testCases {
		testCase := testCase
		testingHandle.Run(testCase.name, func(subTestingHandle *testing.T) {
			subTestingHandle.Parallel()
			matter, body := Split(testCase.document)
			if matter != testCase.expectedMatter || body != testCase.expectedBody {
				subTestingHandle.Fatalf("expected (%q, %q), got (%q, %q)", testCase.expectedMatter, testCase.expectedBody, matter, body)
			}
		})
	}
}

func TestConfigValue(testingHandle *testing.T) {
	testingHandle.Parallel()

	matter := "---\ntitle: Notes\nslw-toml: |\n  max-width = 60\n  lang = \"en\"\n---\n"
	value, valueError := ConfigValue(matter)
	if valueError != nil {
		testingHandle.Fatalf("ConfigValue error: %v", valueError)
	}
	expected := "max-width = 60\nlang = \"en\"\n"
	if value != expected {
		testingHandle.Fatalf("expected %q, got %q", expected, value)
	}

	missing, missingError := ConfigValue("---\ntitle: Notes\n---\n")
	if missingError != nil || missing != "" {
		testingHandle.Fatalf("expected empty value, got %q (%v)", missing, missingError)
	}

	if _, typeError := ConfigValue("---\nslw-toml: 3\n---\n"); typeError == nil {
		testingHandle.Fatalf("expected an error for a non-string value")
	}
	if _, decodeError := ConfigValue("---\nkey: [unclosed\n---\n"); decodeError == nil {
		testingHandle.Fatalf("expected a decode error for invalid YAML")
	}
}
