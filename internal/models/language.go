package models

import "strings"

// Language is a supported translation target.
type Language string

const (
	LanguageEnglish Language = "en"
	LanguageSpanish Language = "es"
	LanguageItalian Language = "it"
	LanguageFrench  Language = "fr"
)

// AllLanguages returns every supported target language
func AllLanguages() []Language {
	return []Language{
		LanguageEnglish,
		LanguageSpanish,
		LanguageItalian,
		LanguageFrench,
	}
}

// ParseLanguage normalizes a language code and reports whether it is supported.
func ParseLanguage(code string) (Language, bool) {
	lang := Language(strings.ToLower(strings.TrimSpace(code)))
	for _, l := range AllLanguages() {
		if l == lang {
			return lang, true
		}
	}
	return "", false
}

// Name returns the English name of the language, used in LLM prompts
func (l Language) Name() string {
	switch l {
	case LanguageEnglish:
		return "English"
	case LanguageSpanish:
		return "Spanish"
	case LanguageItalian:
		return "Italian"
	case LanguageFrench:
		return "French"
	default:
		return string(l)
	}
}

func (l Language) String() string {
	return string(l)
}
