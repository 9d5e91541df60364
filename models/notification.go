package models

// EmailJob is the opaque envelope placed on the notification queue.
// Delivery is at-least-once: a consumer crash between send and ack results in
// redelivery, so content must tolerate being sent twice.
type EmailJob struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
}
