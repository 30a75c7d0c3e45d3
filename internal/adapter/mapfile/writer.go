// Package mapfile renders a scored catalogue as a self-contained interactive
// HTML map. The output needs no server: segment data is embedded in the page
// and Leaflet is pulled from its CDN.
package mapfile

import (
	"encoding/json"
	"fmt"
	"html/template"
	"os"

	"github.com/rodovia-segura/radar-priority-etl/internal/domain"
	"github.com/rodovia-segura/radar-priority-etl/internal/scoring"
)

type templateData struct {
	BuildID     string
	GeneratedAt string
	Scope       string
	SegmentJSON string
	UFs         []string
}

// WriteHTML renders the catalogue map to path. Segments without a centroid
// carry no coordinates and are left off the map (they still appear in the
// embedded data).
func WriteHTML(path string, catalogue scoring.Catalogue) error {
	segments := catalogue.Segments
	if segments == nil {
		segments = []scoring.ScoredSegment{}
	}
	data, err := json.Marshal(segments)
	if err != nil {
		return fmt.Errorf("encode segments: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create map file: %w", err)
	}
	defer f.Close()

	ufs := make([]string, 0, 4)
	for _, uf := range domain.SupportedUFs() {
		ufs = append(ufs, string(uf))
	}

	err = mapTemplate.Execute(f, templateData{
		BuildID:     catalogue.BuildID,
		GeneratedAt: catalogue.GeneratedAt.Format("2006-01-02 15:04 UTC"),
		Scope:       string(catalogue.Scope),
		SegmentJSON: string(data),
		UFs:         ufs,
	})
	if err != nil {
		return fmt.Errorf("render map: %w", err)
	}
	return nil
}

var mapTemplate = template.Must(template.New("map").Parse(`<!DOCTYPE html>
<html lang="pt-BR">
<head>
<meta charset="utf-8">
<title>Trechos priorizados - build {{.BuildID}}</title>
<meta name="viewport" content="width=device-width, initial-scale=1">
<link rel="stylesheet" href="https://unpkg.com/leaflet@1.9.4/dist/leaflet.css">
<script src="https://unpkg.com/leaflet@1.9.4/dist/leaflet.js"></script>
<style>
  html, body, #map { height: 100%; margin: 0; }
  .panel {
    background: white; padding: 10px; min-width: 240px; max-width: 300px;
    box-shadow: 0 1px 5px rgba(0,0,0,0.4); font: 12px/1.4 sans-serif;
  }
  .panel h4 { margin: 0 0 8px 0; }
  .panel .meta { color: #666; margin-top: 8px; }
</style>
</head>
<body>
<div id="map"></div>
<div id="segment-data" style="display:none;">{{.SegmentJSON}}</div>
<script>
(function() {
  var segments = JSON.parse(document.getElementById('segment-data').textContent || '[]');
  var map = L.map('map');
  map.fitBounds([[-25.8, -53.6], [-14.0, -39.0]]);
  L.tileLayer('https://{s}.basemaps.cartocdn.com/light_all/{z}/{x}/{y}{r}.png', {
    attribution: '&copy; OpenStreetMap &copy; CARTO'
  }).addTo(map);

  var layer = L.layerGroup().addTo(map);
  var markers = [];

  function colorBlueToRed(v) {
    var t = Math.max(0, Math.min(100, v)) / 100.0;
    var r = Math.round(255 * t);
    var b = Math.round(255 * (1 - t));
    return 'rgb(' + r + ',0,' + b + ')';
  }

  function selectedUFs() {
    var ufs = [];
    document.querySelectorAll('.ufChk').forEach(function(c) { if (c.checked) ufs.push(c.value); });
    return ufs;
  }

  function render() {
    markers.forEach(function(mk) { layer.removeLayer(mk); });
    markers = [];

    var ufs = selectedUFs();
    var minPriority = parseInt(document.getElementById('prioSlider').value, 10) || 0;
    var metric = document.querySelector('input[name="metric"]:checked').value;
    document.getElementById('prioVal').textContent = minPriority;

    var visible = 0;
    segments.forEach(function(seg) {
      if (ufs.indexOf(seg.uf) === -1) return;
      if (seg.priority < minPriority) return;
      if (!seg.centroid) return;

      visible += 1;
      var value;
      if (metric === 'density') {
        value = Math.min(100, seg.density * 10);
      } else if (metric === 'count') {
        value = Math.min(100, seg.accident_count * 10);
      } else {
        value = seg.priority;
      }
      var color = colorBlueToRed(value);

      var html = ''
        + '<div style="font-size:12px;">'
        + '<b>' + seg.highway + ' (' + seg.uf + ')</b><br/>'
        + 'km ' + seg.start_km.toFixed(1) + ' a ' + seg.end_km.toFixed(1) + '<br/>'
        + 'Acidentes: ' + seg.accident_count + '<br/>'
        + 'Densidade: ' + seg.density.toFixed(2) + ' /km<br/>'
        + 'Prioridade: ' + seg.priority.toFixed(1) + '<br/>'
        + 'ID: ' + seg.id
        + '</div>';

      var marker = L.circleMarker([seg.centroid.lat, seg.centroid.lon], {
        radius: 6, color: color, fillColor: color, fillOpacity: 0.85, weight: 1
      }).bindPopup(html);
      marker.addTo(layer);
      markers.push(marker);
    });

    document.getElementById('segCount').textContent = visible;
  }

  var control = L.control({position: 'topright'});
  control.onAdd = function() {
    var div = L.DomUtil.create('div', 'leaflet-bar leaflet-control panel');
    div.innerHTML = ''
      + '<h4>Trechos priorizados</h4>'
      + '<div><b>UF:</b> '
{{- range .UFs}}
      + '<label><input type="checkbox" class="ufChk" value="{{.}}" checked> {{.}}</label> '
{{- end}}
      + '</div>'
      + '<div style="margin-top:6px;"><b>Prioridade m&iacute;nima:</b> <span id="prioVal">0</span>'
      + '<br/><input type="range" id="prioSlider" min="0" max="100" value="0" style="width:100%"></div>'
      + '<div style="margin-top:6px;"><b>Cor por:</b> '
      + '<label><input type="radio" name="metric" value="priority" checked> prioridade</label> '
      + '<label><input type="radio" name="metric" value="density"> densidade</label> '
      + '<label><input type="radio" name="metric" value="count"> acidentes</label></div>'
      + '<div style="margin-top:6px;">Trechos vis&iacute;veis: <b id="segCount">0</b></div>'
      + '<div class="meta">build {{.BuildID}}<br/>{{.GeneratedAt}} &middot; escopo {{.Scope}}</div>';
    L.DomEvent.disableClickPropagation(div);
    return div;
  };
  control.addTo(map);

  document.addEventListener('change', function(e) {
    if (e.target.closest('.panel')) render();
  });
  document.addEventListener('input', function(e) {
    if (e.target.id === 'prioSlider') render();
  });

  render();
})();
</script>
</body>
</html>
`))
