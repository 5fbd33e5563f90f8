package constant

const (
	ChatMessageRoleUser      = "user"
	ChatMessageRoleAssistant = "assistant"
	ChatMessageRoleSystem    = "system"
)

const (
	SubscriptionTierBasic = "basic"
	SubscriptionTierPro   = "pro"
)

// SystemPromptV1 is prepended to every completion context.
const SystemPromptV1 = "You are a helpful AI assistant. Provide helpful, accurate, and concise responses."

// FallbackApologyV1 is returned by the synchronous completion path when the
// upstream model does not answer within the configured budget.
const FallbackApologyV1 = "I apologize, but I'm experiencing some delays. Please try asking your question again."

// ContextWindowMessages bounds how much stored history is sent upstream.
const ContextWindowMessages = 10

// ConversationTitleMaxLen bounds generated conversation titles, ellipsis included.
const ConversationTitleMaxLen = 50
