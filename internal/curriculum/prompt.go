package curriculum

import (
	"fmt"
	"strings"
)

// WeeksPerSemester は1学期あたりの週数です。
const WeeksPerSemester = 16

// BuildPrompt は入力値をそのまま埋め込んだ生成指示を組み立てます。同じ入力からは常に同じ文字列になります。
func BuildPrompt(req Request) string {
	var b strings.Builder
	b.WriteString("You are an educational curriculum planner.\n\n")
	b.WriteString("Generate a COMPLETE semester-wise weekly curriculum.\n\n")
	b.WriteString("Inputs:\n")
	fmt.Fprintf(&b, "Educational Level: %s\n", req.EducationLevel)
	fmt.Fprintf(&b, "Skill/Course Name: %s\n", req.SkillName)
	fmt.Fprintf(&b, "Number of Semesters: %d\n", req.NumSemesters)
	fmt.Fprintf(&b, "Weekly Hours: %d\n", req.WeeklyHours)
	fmt.Fprintf(&b, "Industry Focus: %s\n\n", req.IndustryFocus)
	b.WriteString("STRICT REQUIREMENTS:\n\n")
	fmt.Fprintf(&b, "1. Generate ALL semesters from 1 to %d.\n", req.NumSemesters)
	fmt.Fprintf(&b, "2. Each semester must have exactly %d weeks.\n", WeeksPerSemester)
	b.WriteString("3. Each week must follow EXACTLY this format:\n\n")
	b.WriteString("Semester X:\n")
	b.WriteString("Week 1 - Focus Area - Activities\n")
	b.WriteString("Week 2 - Focus Area - Activities\n")
	b.WriteString("...\n")
	fmt.Fprintf(&b, "Week %d - Focus Area - Activities\n\n", WeeksPerSemester)
	b.WriteString("4. Do NOT summarize.\n")
	b.WriteString("5. Do NOT skip weeks.\n")
	b.WriteString("6. Do NOT add explanations.\n")
	b.WriteString("7. Use ONLY normal hyphen (-).\n")
	b.WriteString("8. Output plain text only.")
	return b.String()
}
