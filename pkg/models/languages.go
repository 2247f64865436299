package models

// Language is a translation team's locale code with its English name
type Language struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// CommonLanguages are the teams offered when picking a language
var CommonLanguages = []Language{
	{"sv", "Swedish"}, {"da", "Danish"}, {"nb", "Norwegian Bokmål"},
	{"fi", "Finnish"}, {"de", "German"}, {"fr", "French"},
	{"es", "Spanish"}, {"pt_BR", "Portuguese (Brazil)"}, {"it", "Italian"},
	{"nl", "Dutch"}, {"pl", "Polish"}, {"ru", "Russian"},
	{"ja", "Japanese"}, {"zh_CN", "Chinese (Simplified)"}, {"ko", "Korean"},
	{"uk", "Ukrainian"}, {"cs", "Czech"}, {"hu", "Hungarian"},
	{"ar", "Arabic"}, {"he", "Hebrew"}, {"tr", "Turkish"},
	{"pt", "Portuguese"}, {"el", "Greek"}, {"ca", "Catalan"},
	{"ro", "Romanian"}, {"gl", "Galician"}, {"eu", "Basque"},
	{"sl", "Slovenian"}, {"hr", "Croatian"}, {"sr", "Serbian"},
}

// LanguageName returns the name for code, or code itself if it is not listed
func LanguageName(code string) string {
	for _, l := range CommonLanguages {
		if l.Code == code {
			return l.Name
		}
	}
	return code
}
