// Package resolver turns monitor declarations into validated
// (watched path, handler path) pairs.
//
// A declaration is any environment variable whose name starts with MONITOR
// (the prefix is matched case-insensitively) and does not end in _HANDLER.
// Its value is the path to watch; MONITOR_X pairs with MONITOR_X_HANDLER,
// the handler executable. Declarations from the YAML config file follow the
// environment ones.
//
// Each declaration is checked independently for a readable watched path and
// an executable, regular-file handler. Failing declarations are logged and
// dropped; callers only ever see valid pairs.
package resolver
