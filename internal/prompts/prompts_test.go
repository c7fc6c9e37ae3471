package prompts

import (
	"strings"
	"testing"
)

func TestCitation(t *testing.T) {
	got := Citation([]string{"agri.csv", "rain.csv", "soil.csv"})
	want := "[Sources: agri.csv, rain.csv, soil.csv]"
	if got != want {
		t.Errorf("Citation() = %q, want %q", got, want)
	}
}

func TestCodeGeneration(t *testing.T) {
	instruction := CodeGeneration("df", `["Year","State","District"]`)

	for _, fragment := range []string{`"df"`, `["Year","State","District"]`, "SELECT", "SQLite"} {
		if !strings.Contains(instruction, fragment) {
			t.Errorf("instruction missing %q", fragment)
		}
	}
}

func TestSynthesis(t *testing.T) {
	instruction := Synthesis("how much rice?", "19.5", []string{"agri.csv"})

	if !strings.Contains(instruction, `"how much rice?"`) {
		t.Error("instruction should quote the question")
	}
	if !strings.Contains(instruction, "19.5") {
		t.Error("instruction should carry the data result")
	}
	if !strings.Contains(instruction, "[Sources: agri.csv]") {
		t.Error("instruction should carry the citation")
	}
}

func TestExplanation(t *testing.T) {
	instruction := Explanation("unicorn yield?", "SELECT x FROM df", "no such column: x")

	if !strings.Contains(instruction, "SELECT x FROM df") {
		t.Error("instruction should carry the failed query")
	}
	if !strings.Contains(instruction, "no such column: x") {
		t.Error("instruction should carry the error message")
	}
}
