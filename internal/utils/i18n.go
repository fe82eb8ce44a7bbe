package utils

// Server-side messages only: error messages and the points legend. Keys are
// the English text, so an untranslated key still reads correctly.

// SupportedLocales lists the locales the server can answer in.
var SupportedLocales = []string{"en", "pt"}

var translations = map[string]map[string]string{
	"en": {
		"health.ok":                   "ok",
		"legend.deep_work_block":      "Deep work block completed",
		"legend.incident_resolved":    "Incident resolved",
		"legend.applied_learning":     "Applied learning",
		"legend.large_task_completed": "Large task completed (difficulty 4+)",
		"legend.interruption_managed": "Interruption managed well",
	},
	"pt": {
		"health.ok":                   "ok",
		"legend.deep_work_block":      "Bloco de trabalho profundo concluído",
		"legend.incident_resolved":    "Incidente resolvido",
		"legend.applied_learning":     "Aprendizado aplicado",
		"legend.large_task_completed": "Tarefa grande concluída (dificuldade 4+)",
		"legend.interruption_managed": "Interrupção bem gerenciada",

		"unauthorized":      "Não autorizado",
		"invalid json":      "JSON inválido",
		"internal error":    "Erro interno do servidor",
		"too many requests": "Muitas tentativas. Tente novamente em 15 minutos.",
		"invalid date":      "Data inválida",
		"date required":     "Data é obrigatória",
		"invalid limit":     "Limite inválido",

		"email/password required": "Email e senha são obrigatórios",
		"invalid email":           "Email inválido",
		"password too short":      "A senha deve ter pelo menos 8 caracteres",
		"email exists":            "Email já cadastrado",
		"invalid credentials":     "Email ou senha inválidos",
		"user not found":          "Usuário não encontrado",

		"entry not found":          "Registro não encontrado",
		"reflection not found":     "Reflexão não encontrada",
		"experiment not found":     "Experimento não encontrado",
		"name required":            "Nome é obrigatório",
		"target_metric required":   "Métrica alvo é obrigatória",
		"completed required":       "Campo completed é obrigatório",
		"week_start_date required": "Início da semana é obrigatório",

		"start_date and end_date required":        "Datas de início e fim são obrigatórias",
		"end_date must not be before start_date":  "A data final não pode ser anterior à inicial",
		"reflection already exists for this week": "Já existe uma reflexão para esta semana",

		"entry_type must be project, incident or study": "Tipo deve ser project, incident ou study",
		"difficulty must be between 1 and 5":            "Dificuldade deve estar entre 1 e 5",
		"autonomy_score must be between 0 and 10":       "Autonomia deve estar entre 0 e 10",
		"autonomy_average must be between 0 and 10":     "Média de autonomia deve estar entre 0 e 10",
	},
}

// T returns the translated string for key in locale; falls back to English,
// then to the key itself.
func T(locale, key string) string {
	if m, ok := translations[locale]; ok {
		if v, ok := m[key]; ok {
			return v
		}
	}
	if m, ok := translations["en"]; ok {
		if v, ok := m[key]; ok {
			return v
		}
	}
	return key
}
