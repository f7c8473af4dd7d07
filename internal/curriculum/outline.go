package curriculum

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	semesterLine = regexp.MustCompile(`^Semester\s+(\d+)\s*:?$`)
	weekLine     = regexp.MustCompile(`^Week\s+(\d+)\s*-\s*(.+?)\s*-\s*(.+)$`)
)

// Outline は生成テキストの構造を数えた結果です。テキストの検証には使いません。
type Outline struct {
	Semesters        int   `json:"semesters"`
	Weeks            int   `json:"weeks"`
	WeeksPerSemester []int `json:"weeks_per_semester"`
}

// Week は `Week <n> - <focus> - <activities>` 形式の1行です。
type Week struct {
	Number     int
	Focus      string
	Activities string
}

// ParseOutline は `Semester N:` 見出しと週行を数えます。形式に合わない行は無視します。
func ParseOutline(text string) Outline {
	out := Outline{WeeksPerSemester: []int{}}
	for _, raw := range strings.Split(text, "\n") {
		line := normalizeLine(raw)
		if line == "" {
			continue
		}
		if semesterLine.MatchString(line) {
			out.Semesters++
			out.WeeksPerSemester = append(out.WeeksPerSemester, 0)
			continue
		}
		if _, ok := ParseWeek(line); ok {
			out.Weeks++
			if n := len(out.WeeksPerSemester); n > 0 {
				out.WeeksPerSemester[n-1]++
			}
		}
	}
	return out
}

// ParseWeek は週行を分解します。
func ParseWeek(line string) (Week, bool) {
	m := weekLine.FindStringSubmatch(normalizeLine(line))
	if m == nil {
		return Week{}, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return Week{}, false
	}
	return Week{Number: n, Focus: m[2], Activities: m[3]}, true
}

// normalizeLine は前後の空白と Markdown の強調・見出し記号を取り除きます。
func normalizeLine(s string) string {
	s = strings.TrimSpace(strings.TrimRight(s, "\r"))
	s = strings.Trim(s, "*#_ ")
	return strings.TrimSpace(s)
}
