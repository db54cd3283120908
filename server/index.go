package server

import (
	"fmt"
	"net/http"
)

// handleIndex serves a minimal browser client: the SVG view is redrawn on every
// notification and pointer events are sent back over the WebSocket.
func handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html")
	fmt.Fprint(w, `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <title>graphedit</title>
  <style>
    body { font-family: 'Helvetica Neue', Arial, sans-serif; margin: 20px; background: #f5f5f5; color: #333; }
    #view { width: 800px; height: 800px; background: white; box-shadow: 0 2px 10px rgba(0,0,0,0.1); }
    .btn { background: #4285f4; color: white; border: none; padding: 8px 16px; border-radius: 4px; cursor: pointer; }
    #status { margin-left: 10px; }
  </style>
</head>
<body>
  <div>
    <button class="btn" data-cmd="/api/graph/generate">Generate</button>
    <button class="btn" data-cmd="/api/graph/delete">Delete</button>
    <button class="btn" data-cmd="/api/path/toggle">Path mode</button>
    <button class="btn" data-cmd="/api/path/reset">Reset path</button>
    <button class="btn" data-cmd="/api/traversal/start">Traverse</button>
    <progress id="progress" max="100" value="0"></progress>
    <span id="status"></span>
  </div>
  <div id="view" tabindex="0"></div>
  <script>
    const view = document.getElementById('view');
    const ws = new WebSocket((location.protocol === 'https:' ? 'wss://' : 'ws://') + location.host + '/ws');

    async function redraw() {
      const res = await fetch('/api/graph.svg?width=800&height=800');
      view.innerHTML = await res.text();
    }
    function send(type, e) {
      const msg = {type: type, button: e && e.button === 2 ? 'secondary' : 'primary'};
      if (e) {
        const r = view.getBoundingClientRect();
        Object.assign(msg, {x: e.clientX - r.left, y: e.clientY - r.top, width: r.width, height: r.height});
      }
      ws.send(JSON.stringify(msg));
    }

    view.addEventListener('contextmenu', e => e.preventDefault());
    view.addEventListener('mousedown', e => { view.focus(); send('pointer_down', e); });
    view.addEventListener('mousemove', e => { if (e.buttons) send('pointer_move', e); });
    view.addEventListener('mouseup', e => send('pointer_up', e));
    view.addEventListener('keydown', e => { if (e.key === 'Delete') send('key_delete'); });
    document.querySelectorAll('[data-cmd]').forEach(b =>
      b.addEventListener('click', () => fetch(b.dataset.cmd, {method: 'POST'})));

    ws.onmessage = ev => {
      const n = JSON.parse(ev.data);
      switch (n.type) {
        case 'progress': document.getElementById('progress').value = n.percent; break;
        case 'status': document.getElementById('status').textContent = n.message; break;
        case 'error': console.warn(n.message); break;
      }
      redraw();
    };
    redraw();
  </script>
</body>
</html>`)
}
