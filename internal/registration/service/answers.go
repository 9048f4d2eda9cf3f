package service

import (
	"strings"

	"github.com/bwmarrin/snowflake"
	eventdomain "github.com/modoocon/modoocon/internal/event/domain"
	"github.com/modoocon/modoocon/internal/registration/domain"
)

type renderedAnswer struct {
	questionID   snowflake.ID
	questionText string
	answer       string
}

// renderAnswers matches submitted answers to the event's active questions and
// flattens them to their stored text form. Checkbox answers become one
// "- option: value" line per selection. Required questions without a
// non-empty answer fail with MissingAnswerError.
func renderAnswers(questions []*eventdomain.CustomQuestion, submitted []domain.Answer) ([]renderedAnswer, error) {
	byQuestion := make(map[string]domain.Answer, len(submitted))
	for _, answer := range submitted {
		byQuestion[strings.TrimSpace(answer.QuestionID)] = answer
	}

	rendered := make([]renderedAnswer, 0, len(questions))
	for _, question := range questions {
		if question == nil {
			continue
		}
		answer, ok := byQuestion[question.ID.String()]
		text := ""
		if ok {
			text = renderOne(question.Kind, answer)
		}
		if text == "" {
			if question.Required {
				return nil, &domain.MissingAnswerError{Question: question.Text}
			}
			continue
		}
		rendered = append(rendered, renderedAnswer{
			questionID:   question.ID,
			questionText: question.Text,
			answer:       text,
		})
	}
	return rendered, nil
}

func renderOne(kind string, answer domain.Answer) string {
	if kind == eventdomain.QuestionKindCheckbox {
		lines := make([]string, 0, len(answer.Selections))
		for _, selection := range answer.Selections {
			option := strings.TrimSpace(selection.Option)
			if option == "" {
				continue
			}
			lines = append(lines, "- "+option+": "+strings.TrimSpace(selection.Value))
		}
		return strings.Join(lines, "\n")
	}
	return strings.TrimSpace(answer.Text)
}
