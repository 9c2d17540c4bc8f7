package web

import "net/http"

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(indexHTML))
}

const indexHTML = `<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>Adhan Manager</title>
    <style>
        body { font-family: sans-serif; max-width: 600px; margin: 50px auto; padding: 20px; }
        h1 { color: #333; }
        .info { background: #f0f0f0; padding: 15px; border-radius: 5px; margin: 20px 0; }
        table { border-collapse: collapse; width: 100%; }
        td { padding: 6px 10px; border-bottom: 1px solid #ddd; }
        tr.next td { font-weight: bold; background: #e8f4ff; }
        button { background: #007bff; color: white; border: none; padding: 10px 20px; border-radius: 5px; cursor: pointer; }
        button:hover { background: #0056b3; }
        input, select { padding: 8px; margin: 5px; }
        label { display: inline-block; width: 150px; }
    </style>
</head>
<body>
    <h1>Adhan Manager</h1>
    <div class="info" id="status">Loading...</div>
    <table id="times"></table>
    <h2>Settings</h2>
    <div><label>Latitude:</label><input type="number" step="0.0001" id="latitude"></div>
    <div><label>Longitude:</label><input type="number" step="0.0001" id="longitude"></div>
    <div><label>Method:</label><input type="text" id="method"></div>
    <div><label>Asr:</label>
        <select id="asrTime"><option value="jumhour">Jumhour</option><option value="hanafi">Hanafi</option></select>
    </div>
    <div style="margin-top: 20px;">
        <button onclick="save()">Save</button>
    </div>
    <script>
        const order = ['fajr', 'sunrise', 'dhuhr', 'asr', 'maghrib', 'isha'];

        async function loadStatus() {
            const res = await fetch('/api/status');
            const data = await res.json();
            let status = 'Method: ' + data.method + ' | Next: ' + data.next;
            if (data.lastError) {
                status += '<br>Error: ' + data.lastError;
            }
            document.getElementById('status').innerHTML = status;
            const rows = order.map(p =>
                '<tr class="' + (p === data.next ? 'next' : '') + '"><td>' + p + '</td><td>' +
                ((data.times || {})[p] || '-') + '</td></tr>');
            document.getElementById('times').innerHTML = rows.join('');
        }

        async function loadConfig() {
            const res = await fetch('/api/config');
            const cfg = await res.json();
            document.getElementById('latitude').value = cfg.latitude;
            document.getElementById('longitude').value = cfg.longitude;
            document.getElementById('method').value = cfg.method;
            document.getElementById('asrTime').value = cfg.asrTime || 'jumhour';
        }

        async function save() {
            const payload = {
                latitude: parseFloat(document.getElementById('latitude').value),
                longitude: parseFloat(document.getElementById('longitude').value),
                method: document.getElementById('method').value,
                asrTime: document.getElementById('asrTime').value
            };
            const res = await fetch('/api/config', {
                method: 'PUT',
                headers: {'Content-Type': 'application/json'},
                body: JSON.stringify(payload)
            });
            if (!res.ok) {
                alert((await res.json()).error);
            }
            await loadStatus();
        }

        loadConfig();
        loadStatus();
        setInterval(loadStatus, 30000);
    </script>
</body>
</html>`
