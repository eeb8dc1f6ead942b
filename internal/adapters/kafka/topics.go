package kafka

// Topic definitions for Kafka event streaming
const (
	// Analysis run lifecycle
	TopicRunProgress = "analysis.progress"
	TopicRunFinished = "analysis.finished"

	// Agent events
	TopicAgentInvoked = "agents.invocations"
)
