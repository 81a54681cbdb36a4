// Package privacy tracks which device permissions the adult has granted and
// whether the privacy policy was accepted.
//
// Permission prompts are owned by external authorities (a biometric
// authenticator, the notification system). They answer through one-shot
// callbacks which the Manager turns into blocking, cancellable calls.
package privacy
