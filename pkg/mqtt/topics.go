package mqtt

import "fmt"

// TopicResultBase prefixes survey result events
const TopicResultBase = "survey/result"

// ResultTopic constructs the result topic for a candidate
// Pattern: survey/result/{candidate_id}
func ResultTopic(candidateID string) string {
	return fmt.Sprintf("%s/%s", TopicResultBase, candidateID)
}

// StatusTopic constructs the retained online/offline topic for a service
// Pattern: survey/status/{service_name}
func StatusTopic(serviceName string) string {
	return fmt.Sprintf("survey/status/%s", serviceName)
}
