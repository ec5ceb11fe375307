package ai

import "fmt"

const systemPrompt = "あなたは日本の賃貸物件の家賃明細書を解析する専門家です。OCRで抽出されたテキストから、正確で構造化されたデータを提供してください。必ずJSONのみを出力してください。"

// buildExtractionPrompt builds the rent-statement extraction prompt. The
// output schema is a contract with the caller and must not change shape.
func buildExtractionPrompt(ocrText string) string {
	return fmt.Sprintf(`以下のテキストは、家賃明細書（送金明細書・賃料明細書）からOCRで抽出されたものです。
このテキストから物件名と各入居者の賃料情報を抽出してください。

抽出ルール:
- propertyName: 物件名（アパート名・マンション名）。不明な場合はnull。
- contracts: 入居者ごとの賃料行の配列。
  - room_no: 部屋番号。"101"のような数字のほか、"A-2"のような英数字の場合もあります。
  - tenant_name: 入居者名（契約者名）。
  - amount: その入居者の賃料合計（数値のみ、円単位）。空室などで金額が不明な場合はnull。
  - date: 対象年月。"YYYY-MM"形式。日付まで読み取れる場合は"YYYY-MM-DD"形式。不明な場合はnull。

金額のルール:
- 「家賃」「賃料」「共益費込み賃料」は金額に含めてください。
- 「敷金」「礼金」「保証金」「管理手数料」「振込手数料」「水道代」「光熱費」「税金」は含めないでください。
- 同じ入居者に複数の明細行がある場合は、家賃に該当する金額を合算して1行にまとめてください。

出力は以下のJSON形式のみとし、前後に説明文やコードブロックを付けないでください:
{"propertyName": "物件名", "contracts": [{"room_no": "101", "tenant_name": "山田太郎", "amount": 50000, "date": "2025-06"}]}

テキスト:
%s`, ocrText)
}
