package prompt

import (
	"fmt"
	"strings"
)

// NoKnowledgeBase replaces an empty knowledge base in the chatbot prompt.
const NoKnowledgeBase = "No company information has been provided."

const (
	initialInteractionRule = "After your welcome message, if the user asks their first question, your very first task is to politely ask for their name, for example: 'I can certainly help with that. First, may I know your name?'. Once they provide a name, use it in subsequent responses to personalize the conversation."

	coreRuleGrounding   = "1. Your knowledge is strictly limited to the information provided in the 'COMPANY KNOWLEDGE BASE'.\n"
	coreRuleNoInventing = "2. **CRITICAL RULE: If a user's question cannot be answered from the knowledge base, you MUST NOT invent an answer.**\n"
	coreRuleContact     = "3. If you do not have the information, you MUST respond with a phrase like 'I do not have that specific information. For more details, please contact us at: %s'"
	coreRuleGeneric     = "3. If you do not have the information, you MUST respond with a phrase like 'I'm sorry, but I do not have access to that specific information.'"
	formattingRule      = "\n4. Always format your responses using Markdown (e.g., **bold**, lists with -).\n"
)

// Chatbot builds the chatbot system prompt: the persona tone, the name
// collection rule, the grounding rules, the Markdown rule and finally the
// knowledge base. An unknown persona falls back to DefaultPersona and an
// empty knowledge base is replaced by NoKnowledgeBase.
func Chatbot(persona, knowledgeBase, contactFallback string) string {
	var b strings.Builder

	b.WriteString(resolvePersona(persona).Instruction)

	b.WriteString("\n\n--- INITIAL INTERACTION RULE ---\n")
	b.WriteString(initialInteractionRule)

	b.WriteString("\n\n--- CORE RULES ---\n")
	b.WriteString(coreRuleGrounding)
	b.WriteString(coreRuleNoInventing)
	if contactFallback != "" {
		fmt.Fprintf(&b, coreRuleContact, contactFallback)
	} else {
		b.WriteString(coreRuleGeneric)
	}
	b.WriteString(formattingRule)

	b.WriteString("\n--- COMPANY KNOWLEDGE BASE ---\n")
	if knowledgeBase != "" {
		b.WriteString(knowledgeBase)
	} else {
		b.WriteString(NoKnowledgeBase)
	}

	return b.String()
}
