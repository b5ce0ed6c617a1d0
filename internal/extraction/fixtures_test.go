package extraction

const problemDocument = `<?xml version="1.0" encoding="UTF-8"?>
<ClinicalDocument xmlns="urn:hl7-org:v3">
  <component>
    <structuredBody>
      <component>
        <section>
          <code code="11450-4" codeSystem="2.16.840.1.113883.6.1"/>
          <title>Problem List</title>
          <entry>
            <act>
              <entryRelationship>
                <observation>
                  <effectiveTime><low value="20190610"/></effectiveTime>
                  <value code="38341003" displayName="Essential hypertension" codeSystemName="SNOMED CT"/>
                </observation>
              </entryRelationship>
            </act>
          </entry>
        </section>
      </component>
    </structuredBody>
  </component>
</ClinicalDocument>`

const wrongRootDocument = `<?xml version="1.0"?><Foo/>`
