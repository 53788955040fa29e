package schema

import (
	"bytes"
	"strings"
	"text/template"

	"github.com/ignatij/sheetflow/pkg/models"
)

var scriptTemplate = template.Must(template.New("doPost").Parse(`/**
 * Google Apps Script endpoint generated by sheetflow (layout revision: {{.Revision}}).
 * Paste this into "Código.gs", save, then deploy a NEW version
 * (Implementar -> Gestionar implementaciones -> Editar -> Versión "Nueva").
 * "Quién tiene acceso" must stay "Cualquier usuario".
 */

function doPost(e) {
  try {
    if (!e.postData || !e.postData.contents) {
      throw new Error("No se recibieron datos (postData).");
    }

    var data = JSON.parse(e.postData.contents);
    var sheetName = data.sheetName;
    var googleSheetUrl = data.googleSheetUrl;

    if (!googleSheetUrl) throw new Error("URL de Google Sheet no recibida.");
    if (!sheetName) throw new Error("Nombre de la hoja (sheetName) no recibido.");

    var spreadsheet = SpreadsheetApp.openByUrl(googleSheetUrl);
    var sheet = spreadsheet.getSheetByName(sheetName);
    if (!sheet) {
      throw new Error('Hoja no encontrada: "' + sheetName + '". Verifica el nombre en las pestañas de tu Google Sheet.');
    }

    var newRow = [];
    var timestamp = new Date();
{{range $i, $s := .Sheets}}
    {{if $i}}} else {{end}}if (sheetName === '{{$s.Name}}') {
      // {{$s.Headers}}
      newRow = [
        {{$s.Row}}
      ];
{{end}}
    } else {
      throw new Error('La hoja "' + sheetName + '" no está configurada en el script.');
    }

    sheet.appendRow(newRow);

    return ContentService
      .createTextOutput(JSON.stringify({
        status: 'success',
        message: '¡Datos guardados con éxito en la hoja "' + sheetName + '"!'
      }))
      .setMimeType(ContentService.MimeType.JSON);

  } catch (error) {
    return ContentService
      .createTextOutput(JSON.stringify({
        status: 'error',
        message: 'Error en Google Apps Script: ' + error.toString()
      }))
      .setMimeType(ContentService.MimeType.JSON);
  }
}
`))

type scriptSheet struct {
	Name    models.SheetID
	Headers string
	Row     string
}

// RenderScript renders the endpoint's doPost handler from the layout, so the
// column order the endpoint writes and the payload keys the forms send share
// a single definition.
func RenderScript(l Layout) (string, error) {
	var sheets []scriptSheet
	for _, id := range models.Sheets {
		cols, ok := l.Sheets[id]
		if !ok {
			continue
		}
		headers := make([]string, 0, len(cols))
		exprs := make([]string, 0, len(cols))
		for i, col := range cols {
			headers = append(headers, string(rune('A'+i))+": "+col.Header)
			if col.Field == TimestampColumn {
				exprs = append(exprs, "timestamp")
				continue
			}
			exprs = append(exprs, "data."+col.Field+" || ''")
		}
		sheets = append(sheets, scriptSheet{
			Name:    id,
			Headers: strings.Join(headers, ", "),
			Row:     strings.Join(exprs, ",\n        "),
		})
	}

	var buf bytes.Buffer
	err := scriptTemplate.Execute(&buf, struct {
		Revision Revision
		Sheets   []scriptSheet
	}{Revision: l.Revision, Sheets: sheets})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}
