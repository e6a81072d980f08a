package server

// ClientScript is the browser side of the wire protocol. It forwards user
// input inside widget boundaries, applies patches to the matching shadow
// roots and reloads the page when the server asks it to or when a patch
// names a widget it cannot find.
const ClientScript = `
(function() {
    'use strict';

    var reconnectDelay = 1000;
    var maxReconnectDelay = 30000;
    var ws = null;

    function connect() {
        var protocol = location.protocol === 'https:' ? 'wss:' : 'ws:';
        ws = new WebSocket(protocol + '//' + location.host + '/ws');

        ws.onopen = function() {
            reconnectDelay = 1000;
        };

        ws.onmessage = function(e) {
            var msg;
            try {
                msg = JSON.parse(e.data);
            } catch (err) {
                return;
            }
            switch (msg.type) {
                case 'patch':
                    patch(msg);
                    break;
                case 'reload':
                    location.reload();
                    break;
                case 'error':
                    console.error('[plain]', msg.error);
                    break;
            }
        };

        ws.onclose = function() {
            setTimeout(function() {
                reconnectDelay = Math.min(reconnectDelay * 2, maxReconnectDelay);
                connect();
            }, reconnectDelay);
        };

        ws.onerror = function() {
            ws.close();
        };
    }

    function send(msg) {
        if (ws && ws.readyState === WebSocket.OPEN) {
            ws.send(JSON.stringify(msg));
        }
    }

    function findWidget(id, root) {
        var el = root.querySelector('[data-plain-id="' + id + '"]');
        if (el) {
            return el;
        }
        var all = root.querySelectorAll('*');
        for (var i = 0; i < all.length; i++) {
            if (all[i].shadowRoot) {
                el = findWidget(id, all[i].shadowRoot);
                if (el) {
                    return el;
                }
            }
        }
        return null;
    }

    function wrapperOf(el) {
        return el.shadowRoot ? el.shadowRoot.querySelector(':scope > div') : null;
    }

    function fragment(markup) {
        var t = document.createElement('template');
        t.innerHTML = markup || '';
        return t.content.firstChild || document.createTextNode('');
    }

    function patch(msg) {
        var el = findWidget(msg.widget, document);
        var wrapper = el && wrapperOf(el);
        if (!wrapper) {
            location.reload();
            return;
        }
        if (msg.full) {
            wrapper.innerHTML = msg.markup || '';
            return;
        }
        applyOps(wrapper, msg.ops || []);
    }

    // Paths address the previous tree; the ledger maps them onto the live
    // one as edits land.
    function applyOps(root, ops) {
        var ledger = new Map();
        function slot(p) {
            var s = ledger.get(p);
            if (!s) {
                s = {gone: {}, inserted: []};
                ledger.set(p, s);
            }
            return s;
        }
        function position(p, idx) {
            var s = ledger.get(p);
            if (!s) {
                return idx;
            }
            var pos = idx;
            Object.keys(s.gone).forEach(function(k) {
                if (s.gone[k] === 'removed' && +k < idx) {
                    pos--;
                }
            });
            s.inserted.forEach(function(i) {
                if (i <= idx) {
                    pos++;
                }
            });
            return pos;
        }
        function child(p, idx) {
            var s = ledger.get(p);
            if (s && s.gone[idx]) {
                return null;
            }
            return p.childNodes[position(p, idx)] || null;
        }

        ops.forEach(function(op) {
            var path = op.path || [];
            if (path.length === 0) {
                return;
            }
            var parent = root;
            for (var i = 0; i < path.length - 1 && parent; i++) {
                parent = child(parent, path[i]);
            }
            if (!parent) {
                console.warn('[plain] skipping edit', op);
                return;
            }
            var idx = path[path.length - 1];
            var target;
            switch (op.op) {
                case 'insert':
                    var ref = parent.childNodes[position(parent, idx)] || null;
                    parent.insertBefore(fragment(op.markup), ref);
                    slot(parent).inserted.push(idx);
                    break;
                case 'remove':
                    target = child(parent, idx);
                    if (target) {
                        parent.removeChild(target);
                        slot(parent).gone[idx] = 'removed';
                    }
                    break;
                case 'replace-type':
                case 'replace-attrs':
                    target = child(parent, idx);
                    if (target) {
                        parent.replaceChild(fragment(op.markup), target);
                        slot(parent).gone[idx] = 'replaced';
                    }
                    break;
                case 'update-text':
                    target = child(parent, idx);
                    if (target && target.nodeType !== Node.ELEMENT_NODE) {
                        target.data = op.text || '';
                    }
                    break;
            }
        });
    }

    function widgetPath(e) {
        var nodes = e.composedPath();
        for (var i = 0; i < nodes.length; i++) {
            var n = nodes[i];
            var parent = n.parentNode;
            if (parent instanceof ShadowRoot && parent.host.dataset && parent.host.dataset.plainId &&
                n === wrapperOf(parent.host)) {
                var path = [];
                for (var c = nodes[0]; c && c !== n; c = c.parentNode) {
                    path.unshift(Array.prototype.indexOf.call(c.parentNode.childNodes, c));
                }
                return {widget: parent.host.dataset.plainId, path: path};
            }
        }
        return null;
    }

    ['click', 'input', 'change', 'submit'].forEach(function(type) {
        document.addEventListener(type, function(e) {
            var hit = widgetPath(e);
            if (!hit) {
                return;
            }
            var target = e.composedPath()[0];
            if (type === 'click') {
                var link = target.closest && target.closest('a[href^="/"]');
                if (link) {
                    e.preventDefault();
                    history.pushState(null, '', link.getAttribute('href'));
                    send({type: 'navigate', path: link.getAttribute('href')});
                    return;
                }
            }
            if (type === 'submit') {
                e.preventDefault();
            }
            var data = {};
            if (target.value !== undefined) {
                data.value = target.value;
            }
            if (target.checked !== undefined) {
                data.checked = target.checked;
            }
            send({type: 'event', widget: hit.widget, path: hit.path, event: type, data: data});
        }, true);
    });

    window.addEventListener('popstate', function() {
        send({type: 'navigate', path: location.pathname});
    });

    if (document.readyState === 'loading') {
        document.addEventListener('DOMContentLoaded', connect);
    } else {
        connect();
    }
})();
`
