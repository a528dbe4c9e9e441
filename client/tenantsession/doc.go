// Package tenantsession es el SDK cliente del core de contexto tenant-scoped.
//
// Mantiene una sola pieza de estado mutable — el tenant activo que muestra
// la UI — y la reconcilia contra el puntero durable del servidor bajo
// concurrencia, fallos de red y carreras de UI (cookie de sesión todavía no
// hidratada post-login, doble click en el switcher, eventos de sign-in
// redundantes del provider).
//
// Tres piezas cooperan alrededor de ese estado:
//
//   - Bootstrap: fetch inicial de memberships, con guard para que dispare a
//     lo sumo una vez aunque el provider emita varios eventos de sign-in.
//   - Switch coordinator: máquina de estados (Idle/Loading/Switching/Error)
//     con single-flight, update optimista y rollback OBLIGATORIO ante
//     rechazo del servidor.
//   - Background refresher: reconciliación non-blocking que nunca vuelve a
//     mostrar el spinner de carga.
//
// El estado local es derivado, nunca fuente de verdad: siempre es
// reconciliable contra el ActiveTenantPointer del servidor.
package tenantsession
