package middlewares

import "net/http"

// Middleware decora un http.Handler.
type Middleware func(http.Handler) http.Handler

// Chain envuelve h con mws de afuera hacia adentro: el primero de la lista
// intercepta el request antes que el resto y es el último en ver la
// respuesta. Las rutas protegidas componen con esto su stack por endpoint
// (auth, rate limit) sin depender de los groups del router.
func Chain(h http.Handler, mws ...Middleware) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}
