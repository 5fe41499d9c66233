// Package api implements the HTTP surface of the CRM.
//
// Every handler follows the same sequence: resolve the acting
// collaborator from the request context, load the targeted record,
// consult the authorization engine, apply the state-transition
// validator to the incoming payload, persist, and map any domain error
// to its HTTP status. Successful responses use 200 for reads, 201 for
// creations, 202 for updates and 204 for deletions.
//
// Routes:
//
//	GET    /clients            list clients visible to the actor
//	POST   /clients            create a client (sales only)
//	GET    /clients/{id}       retrieve a client
//	PUT    /clients/{id}       update a client
//	DELETE /clients/{id}       delete a prospect
//	GET    /contracts          list contracts visible to the actor
//	POST   /contracts          create a contract (sales only)
//	GET    /contracts/{id}     retrieve a contract
//	PUT    /contracts/{id}     update an unsigned contract
//	GET    /events             list events visible to the actor
//	POST   /events             create an event (sales only)
//	GET    /events/{id}        retrieve an event
//	PUT    /events/{id}        update an unfinished event
//
// Contracts and events are never deleted through the API.
package api
